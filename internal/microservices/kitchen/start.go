package kitchen

import (
	"context"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/config"
	"restaurant-shm/internal/connections/rabbitmq"
	"restaurant-shm/internal/microservices/kitchen/repository"
	"restaurant-shm/internal/microservices/kitchen/service"
	"restaurant-shm/internal/store"
)

func Run(ctx context.Context, st *store.Store, pub rabbitmq.StatusPublisher, consumerID int, cfg config.ConsumerConfig) error {
	lg := logger.New("kitchen")
	repo := repository.New(st)
	svc := service.New(*repo, pub, lg, consumerID, cfg)

	if err := svc.KitchenService.Run(ctx); err != nil {
		lg.Error("kitchen_service_stopped", err, map[string]any{"consumer_id": consumerID})
		return err
	}
	return nil
}
