package domain

import "time"

// StatsView is the read model served by the tracker and written by exports.
type StatsView struct {
	TotalCreated   int64 `json:"total_created"`
	TotalProcessed int64 `json:"total_processed"`
	InQueue        int   `json:"in_queue"`
	InPreparation  int   `json:"in_preparation"`
}

func NewStatsView(s Snapshot) StatsView {
	return StatsView{
		TotalCreated:   s.Stats.TotalCreated,
		TotalProcessed: s.Stats.TotalProcessed,
		InQueue:        s.Stats.InQueue,
		InPreparation:  s.CountStatus(StatusInPreparation),
	}
}

type OrderView struct {
	ID         int64     `json:"id"`
	Table      int       `json:"table"`
	Item       string    `json:"item"`
	Status     Status    `json:"status"`
	ProducerID int       `json:"producer_id"`
	ConsumerID *int      `json:"consumer_id"`
	CreatedAt  time.Time `json:"timestamp"`
}

// NewOrderView renders an unassigned consumer as null instead of -1.
func NewOrderView(o Order) OrderView {
	v := OrderView{
		ID:         o.ID,
		Table:      o.Table,
		Item:       o.Item,
		Status:     o.Status,
		ProducerID: o.ProducerID,
		CreatedAt:  o.CreatedAt,
	}
	if o.ConsumerID != UnassignedConsumer {
		c := o.ConsumerID
		v.ConsumerID = &c
	}
	return v
}
