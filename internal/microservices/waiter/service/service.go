package service

import (
	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/config"
	"restaurant-shm/internal/connections/rabbitmq"
	"restaurant-shm/internal/microservices/waiter/repository"
)

type Service struct {
	WaiterService WaiterServiceInterface
}

func New(repo repository.Repository, pub rabbitmq.StatusPublisher, lg *logger.Logger, producerID int, cfg config.ProducerConfig) *Service {
	return &Service{
		WaiterService: NewWaiterService(repo.WaiterRepo, pub, lg, producerID, cfg.IntervalMin, cfg.IntervalMax),
	}
}
