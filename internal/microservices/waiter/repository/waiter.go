package repository

import (
	"context"

	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/store"
)

type WaiterRepositoryInterface interface {
	Add(ctx context.Context, o domain.Order) error
}

type WaiterRepository struct {
	store *store.Store
}

func NewWaiterRepository(st *store.Store) WaiterRepositoryInterface {
	return &WaiterRepository{store: st}
}

func (r *WaiterRepository) Add(ctx context.Context, o domain.Order) error {
	return r.store.Add(ctx, o)
}
