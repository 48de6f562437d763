package domain

import "time"

// StatusEvent is published on the notifications exchange whenever an agent
// moves an order through the pipeline.
type StatusEvent struct {
	MessageID string    `json:"message_id"`
	OrderID   int64     `json:"order_id"`
	Item      string    `json:"item,omitempty"`
	Table     int       `json:"table,omitempty"`
	OldStatus Status    `json:"old_status,omitempty"`
	NewStatus Status    `json:"new_status"`
	ChangedBy string    `json:"changed_by"`
	Timestamp time.Time `json:"timestamp"`
}
