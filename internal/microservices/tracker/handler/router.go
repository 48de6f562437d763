package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires the read-only API and the scrape endpoint for reg.
func Router(h *Handler, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/orders", h.TrackerHandler.ListOrders)
	mux.HandleFunc("GET /api/v1/orders/{order_id}", h.TrackerHandler.GetOrder)
	mux.HandleFunc("GET /api/v1/stats", h.TrackerHandler.GetStats)
	mux.HandleFunc("GET /healthz", h.TrackerHandler.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
