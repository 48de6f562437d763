package tracker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"restaurant-shm/internal/common/httpx"
	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/microservices/tracker/handler"
	"restaurant-shm/internal/microservices/tracker/metrics"
	"restaurant-shm/internal/microservices/tracker/repository"
	"restaurant-shm/internal/microservices/tracker/service"
	"restaurant-shm/internal/store"
)

// NewHandler builds the tracker API over st with its own metrics registry.
func NewHandler(st *store.Store, lg *logger.Logger) (http.Handler, error) {
	repo := repository.NewTrackerRepo(st)
	svc := service.NewTrackerService(repo)
	h := handler.New(svc, lg)

	reg := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTP()
	if err := httpMetrics.Register(reg); err != nil {
		return nil, err
	}
	if err := reg.Register(metrics.NewStoreCollector(svc, st.Name())); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}

	return httpMetrics.Middleware(handler.Router(h, reg)), nil
}

// Start запускает HTTP-сервер трекинга на порту port.
// Блокирует горутину до отмены ctx.
func Start(ctx context.Context, port int, st *store.Store) error {
	lg := logger.New("tracker")
	h, err := NewHandler(st, lg)
	if err != nil {
		return fmt.Errorf("tracker metrics: %w", err)
	}

	addr := fmt.Sprintf(":%d", port)
	lg.Info("service_started", map[string]any{"addr": addr, "segment": st.Name()})
	if err := httpx.New(addr, h).Run(ctx); err != nil {
		lg.Error("service_failed", err, map[string]any{"addr": addr})
		return err
	}
	lg.Info("graceful_shutdown", nil)
	return nil
}
