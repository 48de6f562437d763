package notificator

import (
	"context"
	"fmt"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/connections/rabbitmq"
	"restaurant-shm/internal/microservices/notificator/service"
)

func Start(ctx context.Context, rmqClient *rabbitmq.Client) error {
	lg := logger.New("notificator")
	if err := rmqClient.DeclareNotifications(); err != nil {
		return err
	}
	msgs, err := rmqClient.Consume(rabbitmq.NotificationsQueue, "notificator", 10)
	if err != nil {
		return fmt.Errorf("consume %s: %w", rabbitmq.NotificationsQueue, err)
	}
	lg.Info("service_started", map[string]any{"queue": rabbitmq.NotificationsQueue})

	svc := service.New(lg)
	return svc.NotificatorService.Notify(ctx, msgs)
}
