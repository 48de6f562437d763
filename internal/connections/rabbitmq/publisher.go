package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-shm/internal/domain"
)

// StatusPublisher is how agents announce order transitions. The store never
// depends on it; a publish failure only costs a notification.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, ev domain.StatusEvent) error
}

type publisher interface {
	Publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table, contentType string, persistent bool) error
}

// EventPublisher sends status events to the notifications exchange.
type EventPublisher struct {
	client  publisher
	source  string
	timeout time.Duration
}

func NewEventPublisher(c *Client, source string) *EventPublisher {
	return &EventPublisher{client: c, source: source, timeout: 5 * time.Second}
}

// NewStatusEvent stamps an event with a fresh message id and the current time.
func NewStatusEvent(o domain.Order, from, to domain.Status, changedBy string) domain.StatusEvent {
	return domain.StatusEvent{
		MessageID: uuid.NewString(),
		OrderID:   o.ID,
		Item:      o.Item,
		Table:     o.Table,
		OldStatus: from,
		NewStatus: to,
		ChangedBy: changedBy,
		Timestamp: time.Now().UTC(),
	}
}

func (p *EventPublisher) PublishStatus(ctx context.Context, ev domain.StatusEvent) error {
	if ev.MessageID == "" {
		ev.MessageID = uuid.NewString()
	}
	body, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	headers := amqp.Table{"x-source": p.source, "x-changed-by": ev.ChangedBy}
	if err := p.client.Publish(ctx, NotificationsExchange, "", body, headers, "application/json", true); err != nil {
		return fmt.Errorf("publish status of order %d: %w", ev.OrderID, err)
	}
	return nil
}

// NopPublisher drops every event; agents use it when RabbitMQ is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishStatus(context.Context, domain.StatusEvent) error { return nil }
