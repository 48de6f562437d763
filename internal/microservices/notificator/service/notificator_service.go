package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/domain"
)

// Acknowledger is the part of amqp.Delivery the service settles.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type NotificatorService struct {
	log  *logger.Logger
	seen int
}

func NewNotificatorService(lg *logger.Logger) *NotificatorService {
	if lg == nil {
		lg = logger.NewNop()
	}
	return &NotificatorService{log: lg}
}

// Handle decodes one status event and logs it. Unreadable messages are
// reported as errors so the caller can drop them.
func (ns *NotificatorService) Handle(body []byte) (domain.StatusEvent, error) {
	var ev domain.StatusEvent
	if err := sonic.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("decode status event: %w", err)
	}
	if ev.OrderID <= 0 || !ev.NewStatus.Valid() {
		return ev, fmt.Errorf("status event for order %d with status %q is invalid", ev.OrderID, ev.NewStatus)
	}
	ns.seen++
	ns.log.Info("notification_received", map[string]any{
		"message_id": ev.MessageID,
		"order_id":   ev.OrderID,
		"old_status": string(ev.OldStatus),
		"new_status": string(ev.NewStatus),
		"changed_by": ev.ChangedBy,
	})
	return ev, nil
}

func (ns *NotificatorService) settle(d Acknowledger, body []byte) {
	if _, err := ns.Handle(body); err != nil {
		ns.log.Error("notification_rejected", err, nil)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Notify drains msgs until ctx ends or the channel closes.
func (ns *NotificatorService) Notify(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			ns.log.Info("graceful_shutdown", map[string]any{"received": ns.seen})
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("notification channel closed after %d messages", ns.seen)
			}
			ns.settle(d, d.Body)
		}
	}
}
