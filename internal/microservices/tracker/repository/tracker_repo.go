package repository

import (
	"context"

	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/store"
)

type TrackerRepoInterface interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	Name() string
}

type TrackerRepo struct {
	store *store.Store
}

func NewTrackerRepo(st *store.Store) *TrackerRepo { return &TrackerRepo{store: st} }

func (r *TrackerRepo) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	return r.store.Snapshot(ctx)
}

func (r *TrackerRepo) Name() string { return r.store.Name() }
