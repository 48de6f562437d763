package handler

import (
	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/microservices/tracker/service"
)

type Handler struct {
	TrackerHandler *TrackerHandler
}

func New(svc service.TrackerServiceInterface, lg *logger.Logger) *Handler {
	return &Handler{
		TrackerHandler: NewTrackerHandler(svc, lg),
	}
}
