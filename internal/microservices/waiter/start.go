package waiter

import (
	"context"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/config"
	"restaurant-shm/internal/connections/rabbitmq"
	"restaurant-shm/internal/microservices/waiter/repository"
	"restaurant-shm/internal/microservices/waiter/service"
	"restaurant-shm/internal/store"
)

func Run(ctx context.Context, st *store.Store, pub rabbitmq.StatusPublisher, producerID int, cfg config.ProducerConfig) error {
	lg := logger.New("waiter")
	repo := repository.New(st)
	svc := service.New(*repo, pub, lg, producerID, cfg)

	if err := svc.WaiterService.Run(ctx); err != nil {
		lg.Error("producer_failed", err, map[string]any{"producer_id": producerID})
		return err
	}
	return nil
}
