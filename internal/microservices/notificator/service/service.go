package service

import "restaurant-shm/internal/common/logger"

type Service struct {
	NotificatorService *NotificatorService
}

func New(lg *logger.Logger) *Service {
	return &Service{NotificatorService: NewNotificatorService(lg)}
}
