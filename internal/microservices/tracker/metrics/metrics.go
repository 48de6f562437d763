package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"restaurant-shm/internal/domain"
)

// StatsSource is read once per scrape.
type StatsSource interface {
	Stats(ctx context.Context) (domain.StatsView, error)
}

// StoreCollector exports the store statistics as of the scrape.
type StoreCollector struct {
	src     StatsSource
	timeout time.Duration

	created       *prometheus.Desc
	processed     *prometheus.Desc
	inQueue       *prometheus.Desc
	inPreparation *prometheus.Desc
	up            *prometheus.Desc
}

func NewStoreCollector(src StatsSource, segment string) *StoreCollector {
	labels := prometheus.Labels{"segment": segment}
	return &StoreCollector{
		src:           src,
		timeout:       2 * time.Second,
		created:       prometheus.NewDesc("restaurant_orders_created_total", "Orders added to the store", nil, labels),
		processed:     prometheus.NewDesc("restaurant_orders_processed_total", "Orders completed by consumers", nil, labels),
		inQueue:       prometheus.NewDesc("restaurant_orders_in_queue", "Orders waiting to be claimed", nil, labels),
		inPreparation: prometheus.NewDesc("restaurant_orders_in_preparation", "Orders claimed and not yet completed", nil, labels),
		up:            prometheus.NewDesc("restaurant_store_up", "Whether the last read of the store succeeded", nil, labels),
	}
}

func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.created
	ch <- c.processed
	ch <- c.inQueue
	ch <- c.inPreparation
	ch <- c.up
}

func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	st, err := c.src.Stats(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(st.TotalCreated))
	ch <- prometheus.MustNewConstMetric(c.processed, prometheus.CounterValue, float64(st.TotalProcessed))
	ch <- prometheus.MustNewConstMetric(c.inQueue, prometheus.GaugeValue, float64(st.InQueue))
	ch <- prometheus.MustNewConstMetric(c.inPreparation, prometheus.GaugeValue, float64(st.InPreparation))
}

// HTTP holds the request metrics of the tracker API.
type HTTP struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func NewHTTP() *HTTP {
	return &HTTP{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tracker_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func (m *HTTP) Register(reg prometheus.Registerer) error {
	if err := reg.Register(m.RequestsTotal); err != nil {
		return err
	}
	return reg.Register(m.RequestDuration)
}

// Middleware records every request under its route pattern.
func (m *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
