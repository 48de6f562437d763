package repository

import "restaurant-shm/internal/store"

type Repository struct {
	WaiterRepo WaiterRepositoryInterface
}

func New(st *store.Store) *Repository {
	return &Repository{
		WaiterRepo: NewWaiterRepository(st),
	}
}
