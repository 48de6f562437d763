package repository

import (
	"context"

	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/store"
)

type KitchenRepositoryInterface interface {
	// ClaimNext переводит самый старый Pending заказ в InPreparation
	ClaimNext(ctx context.Context, consumerID int) (domain.Order, bool, error)
	Complete(ctx context.Context, orderID int64) (bool, error)
}

type KitchenRepository struct {
	store *store.Store
}

func NewKitchenRepository(st *store.Store) KitchenRepositoryInterface {
	return &KitchenRepository{store: st}
}

func (r *KitchenRepository) ClaimNext(ctx context.Context, consumerID int) (domain.Order, bool, error) {
	return r.store.ClaimNext(ctx, consumerID)
}

func (r *KitchenRepository) Complete(ctx context.Context, orderID int64) (bool, error) {
	return r.store.Complete(ctx, orderID)
}
