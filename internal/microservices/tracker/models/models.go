package models

import "restaurant-shm/internal/domain"

const DefaultListLimit = 30

type OrderList struct {
	Orders []domain.OrderView `json:"orders"`
	Count  int                `json:"count"`
	Total  int                `json:"total"` // orders currently retained in the store
}

type Health struct {
	Status  string `json:"status"`
	Segment string `json:"segment"`
}
