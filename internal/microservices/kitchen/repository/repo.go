package repository

import "restaurant-shm/internal/store"

type Repository struct {
	KitchenRepo KitchenRepositoryInterface
}

func New(st *store.Store) *Repository {
	return &Repository{
		KitchenRepo: NewKitchenRepository(st),
	}
}
