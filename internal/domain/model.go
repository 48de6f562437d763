package domain

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending       Status = "Pending"
	StatusInPreparation Status = "InPreparation"
	StatusCompleted     Status = "Completed"
)

// UnassignedConsumer marks an order nobody has claimed yet.
const UnassignedConsumer = -1

const (
	MinTable = 1
	MaxTable = 20

	// SequenceSpan is the decimal width reserved for the per-producer counter
	// inside an order id.
	SequenceSpan = 1_000_000
)

var (
	ErrInvalidOrder      = errors.New("invalid order")
	ErrSequenceExhausted = errors.New("producer sequence exhausted")
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInPreparation, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is the single forward step from s.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusInPreparation
	case StatusInPreparation:
		return next == StatusCompleted
	default:
		return false
	}
}

type Order struct {
	ID         int64     `json:"id"`
	Table      int       `json:"table"`
	Item       string    `json:"item"`
	CreatedAt  time.Time `json:"timestamp"`
	Status     Status    `json:"status"`
	ProducerID int       `json:"producer_id"`
	ConsumerID int       `json:"consumer_id"`
}

// NewOrderID concatenates the producer id with its sequence number:
// producer 3, sequence 42 -> 3000042.
func NewOrderID(producerID int, seq int64) (int64, error) {
	if producerID <= 0 {
		return 0, fmt.Errorf("%w: producer id %d", ErrInvalidOrder, producerID)
	}
	if seq <= 0 || seq >= SequenceSpan {
		return 0, fmt.Errorf("%w: sequence %d", ErrSequenceExhausted, seq)
	}
	return int64(producerID)*SequenceSpan + seq, nil
}

// NewOrder builds a Pending order stamped with the current time.
func NewOrder(id int64, table int, item string, producerID int) Order {
	return Order{
		ID:         id,
		Table:      table,
		Item:       item,
		CreatedAt:  time.Now().UTC(),
		Status:     StatusPending,
		ProducerID: producerID,
		ConsumerID: UnassignedConsumer,
	}
}

// Validate checks the invariants of an order that is about to enter the queue.
func (o Order) Validate() error {
	switch {
	case o.ID <= 0:
		return fmt.Errorf("%w: id must be positive", ErrInvalidOrder)
	case o.Table < MinTable || o.Table > MaxTable:
		return fmt.Errorf("%w: table %d out of range [%d, %d]", ErrInvalidOrder, o.Table, MinTable, MaxTable)
	case o.Item == "":
		return fmt.Errorf("%w: item is empty", ErrInvalidOrder)
	case o.Status != StatusPending:
		return fmt.Errorf("%w: new order must be %s, got %q", ErrInvalidOrder, StatusPending, o.Status)
	case o.ConsumerID != UnassignedConsumer:
		return fmt.Errorf("%w: new order already assigned to consumer %d", ErrInvalidOrder, o.ConsumerID)
	case o.ProducerID <= 0:
		return fmt.Errorf("%w: producer id must be positive", ErrInvalidOrder)
	}
	return nil
}

type Statistics struct {
	TotalCreated   int64 `json:"total_created"`
	TotalProcessed int64 `json:"total_processed"`
	InQueue        int   `json:"in_queue"`
}

// Snapshot is the whole store state; it is always written as one unit.
type Snapshot struct {
	Orders []Order    `json:"orders"`
	Stats  Statistics `json:"stats"`
}

func EmptySnapshot() Snapshot {
	return Snapshot{Orders: []Order{}}
}

func (s Snapshot) CountStatus(st Status) int {
	n := 0
	for _, o := range s.Orders {
		if o.Status == st {
			n++
		}
	}
	return n
}

// IndexOf returns the position of the order with the given id, or -1.
func (s Snapshot) IndexOf(id int64) int {
	for i, o := range s.Orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}
