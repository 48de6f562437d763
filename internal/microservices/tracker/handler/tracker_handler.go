package handler

import (
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/microservices/tracker/models"
	"restaurant-shm/internal/microservices/tracker/service"
)

const maxListLimit = 1000

type TrackerHandler struct {
	service service.TrackerServiceInterface
	log     *logger.Logger
}

func NewTrackerHandler(svc service.TrackerServiceInterface, lg *logger.Logger) *TrackerHandler {
	if lg == nil {
		lg = logger.NewNop()
	}
	return &TrackerHandler{service: svc, log: lg}
}

func (h *TrackerHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), models.DefaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		writeProblem(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 1000")
		return
	}
	list, err := h.service.ListOrders(r.Context(), limit)
	if err != nil {
		h.log.Error("list_orders_failed", err, nil)
		writeProblem(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *TrackerHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(param(r, "order_id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a positive integer")
		return
	}
	v, ok, err := h.service.GetOrderView(r.Context(), id)
	if err != nil {
		h.log.Error("get_order_failed", err, map[string]any{"order_id": id})
		writeProblem(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if !ok {
		writeProblem(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *TrackerHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		h.log.Error("get_stats_failed", err, nil)
		writeProblem(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *TrackerHandler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.Stats(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.Health{Status: "ok", Segment: h.service.Segment()})
}

// writeJSON: отдаёт JSON с нужным статусом
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

// writeProblem: единый формат ошибок (RFC7807 Problem+JSON, упрощённый)
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	resp := map[string]any{
		"type":   typ,                   // машинно-читаемый код ошибки
		"title":  http.StatusText(code), // человеко-читаемый заголовок
		"status": code,                  // HTTP статус
		"detail": detail,                // подробности
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(code)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(resp)
}

func param(r *http.Request, key string) string {
	return r.PathValue(key)
}

// atoiDefault: безопасный парсер int с дефолтом
func atoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
