package service

import (
	"context"

	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/microservices/tracker/models"
	"restaurant-shm/internal/microservices/tracker/repository"
)

type TrackerServiceInterface interface {
	ListOrders(ctx context.Context, limit int) (models.OrderList, error)
	GetOrderView(ctx context.Context, id int64) (domain.OrderView, bool, error)
	Stats(ctx context.Context) (domain.StatsView, error)
	Segment() string
}

type TrackerService struct {
	repo repository.TrackerRepoInterface
}

func NewTrackerService(repo repository.TrackerRepoInterface) *TrackerService {
	return &TrackerService{repo: repo}
}

// ListOrders returns up to limit orders, most recent first.
func (s *TrackerService) ListOrders(ctx context.Context, limit int) (models.OrderList, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return models.OrderList{}, err
	}
	if limit <= 0 {
		limit = models.DefaultListLimit
	}
	n := min(limit, len(snap.Orders))
	out := make([]domain.OrderView, 0, n)
	for i := len(snap.Orders) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, domain.NewOrderView(snap.Orders[i]))
	}
	return models.OrderList{Orders: out, Count: len(out), Total: len(snap.Orders)}, nil
}

func (s *TrackerService) GetOrderView(ctx context.Context, id int64) (domain.OrderView, bool, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return domain.OrderView{}, false, err
	}
	i := snap.IndexOf(id)
	if i < 0 {
		return domain.OrderView{}, false, nil
	}
	return domain.NewOrderView(snap.Orders[i]), true, nil
}

func (s *TrackerService) Stats(ctx context.Context) (domain.StatsView, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return domain.StatsView{}, err
	}
	return domain.NewStatsView(snap), nil
}

func (s *TrackerService) Segment() string { return s.repo.Name() }
