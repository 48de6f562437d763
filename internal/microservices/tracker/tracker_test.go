//go:build unix

package tracker

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/microservices/tracker/models"
	"restaurant-shm/internal/store"
)

func seededServer(t *testing.T, n int) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Initialize(store.Options{Name: "tracker_test", Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Destroy() })

	ctx := context.Background()
	for seq := 1; seq <= n; seq++ {
		id, err := domain.NewOrderID(1, int64(seq))
		require.NoError(t, err)
		require.NoError(t, st.Add(ctx, domain.NewOrder(id, seq, "Mushroom Risotto", 1)))
	}

	h, err := NewHandler(st, logger.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, st
}

func get(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, sonic.Unmarshal(body, out), string(body))
	}
	return resp
}

func TestListOrdersNewestFirst(t *testing.T) {
	srv, _ := seededServer(t, 5)

	var list models.OrderList
	resp := get(t, srv.URL+"/api/v1/orders?limit=3", &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, list.Count)
	assert.Equal(t, 5, list.Total)
	require.Len(t, list.Orders, 3)
	assert.Equal(t, int64(1000005), list.Orders[0].ID)
	assert.Equal(t, int64(1000003), list.Orders[2].ID)
	assert.Nil(t, list.Orders[0].ConsumerID)
}

func TestListOrdersRejectsBadLimit(t *testing.T) {
	srv, _ := seededServer(t, 0)

	var problem map[string]any
	resp := get(t, srv.URL+"/api/v1/orders?limit=abc", &problem)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "invalid_limit", problem["type"])
}

func TestGetOrder(t *testing.T) {
	srv, st := seededServer(t, 2)
	_, ok, err := st.ClaimNext(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, ok)

	var v domain.OrderView
	resp := get(t, srv.URL+"/api/v1/orders/1000001", &v)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StatusInPreparation, v.Status)
	require.NotNil(t, v.ConsumerID)
	assert.Equal(t, 9, *v.ConsumerID)

	resp = get(t, srv.URL+"/api/v1/orders/4242", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, srv.URL+"/api/v1/orders/pizza", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsAndHealth(t *testing.T) {
	srv, st := seededServer(t, 3)
	_, _, err := st.ClaimNext(context.Background(), 1)
	require.NoError(t, err)

	var stats domain.StatsView
	resp := get(t, srv.URL+"/api/v1/stats", &stats)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StatsView{TotalCreated: 3, InQueue: 2, InPreparation: 1}, stats)

	var health models.Health
	resp = get(t, srv.URL+"/healthz", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tracker_test", health.Segment)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := seededServer(t, 4)
	get(t, srv.URL+"/api/v1/stats", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `restaurant_orders_created_total{segment="tracker_test"} 4`)
	assert.Contains(t, text, `restaurant_orders_in_queue{segment="tracker_test"} 4`)
	assert.Contains(t, text, `restaurant_store_up{segment="tracker_test"} 1`)
	assert.Contains(t, text, `tracker_http_requests_total{method="GET",path="GET /api/v1/stats",status="200"} 1`)
}
