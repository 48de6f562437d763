package service

import (
	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/config"
	"restaurant-shm/internal/connections/rabbitmq"
	"restaurant-shm/internal/microservices/kitchen/repository"
)

type Service struct {
	KitchenService KitchenServiceInterface
}

func New(db repository.Repository, pub rabbitmq.StatusPublisher, lg *logger.Logger, consumerID int, cfg config.ConsumerConfig) *Service {
	return &Service{
		KitchenService: NewKitchenService(db.KitchenRepo, pub, lg, consumerID, cfg.PrepMin, cfg.PrepMax, cfg.PollInterval),
	}
}
