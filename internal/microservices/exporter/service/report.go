package service

import (
	"time"

	"restaurant-shm/internal/domain"
)

// Parameters describes the run a report was taken from. Zero Duration means
// the system ran until stopped.
type Parameters struct {
	Producers  int           `json:"producers"`
	Consumers  int           `json:"consumers"`
	Duration   time.Duration `json:"-"`
	ExportedAt time.Time     `json:"exported_at"`
}

// Report is one point-in-time read of the store.
type Report struct {
	Parameters Parameters         `json:"parameters"`
	Stats      domain.StatsView   `json:"statistics"`
	Orders     []domain.OrderView `json:"orders"`
}

type reportJSON struct {
	Parameters struct {
		Producers       int       `json:"producers"`
		Consumers       int       `json:"consumers"`
		DurationSeconds any       `json:"duration_seconds"` // number, or "unlimited"
		ExportedAt      time.Time `json:"exported_at"`
	} `json:"parameters"`
	Stats  domain.StatsView   `json:"statistics"`
	Orders []domain.OrderView `json:"orders"`
}

func NewReport(snap domain.Snapshot, params Parameters) Report {
	orders := make([]domain.OrderView, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		orders = append(orders, domain.NewOrderView(o))
	}
	if params.ExportedAt.IsZero() {
		params.ExportedAt = time.Now().UTC()
	}
	return Report{Parameters: params, Stats: domain.NewStatsView(snap), Orders: orders}
}

func (r Report) durationLabel() any {
	if r.Parameters.Duration <= 0 {
		return "unlimited"
	}
	return int64(r.Parameters.Duration / time.Second)
}

func (r Report) toJSON() reportJSON {
	var out reportJSON
	out.Parameters.Producers = r.Parameters.Producers
	out.Parameters.Consumers = r.Parameters.Consumers
	out.Parameters.DurationSeconds = r.durationLabel()
	out.Parameters.ExportedAt = r.Parameters.ExportedAt
	out.Stats = r.Stats
	out.Orders = r.Orders
	return out
}
