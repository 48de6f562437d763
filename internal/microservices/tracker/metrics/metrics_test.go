package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-shm/internal/domain"
)

type fakeStats struct {
	view domain.StatsView
	err  error
}

func (f fakeStats) Stats(context.Context) (domain.StatsView, error) { return f.view, f.err }

func TestStoreCollector(t *testing.T) {
	c := NewStoreCollector(fakeStats{view: domain.StatsView{TotalCreated: 7, TotalProcessed: 5, InQueue: 1, InPreparation: 1}}, "orders")

	expected := `
# HELP restaurant_orders_processed_total Orders completed by consumers
# TYPE restaurant_orders_processed_total counter
restaurant_orders_processed_total{segment="orders"} 5
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "restaurant_orders_processed_total"))
	assert.Equal(t, 5, testutil.CollectAndCount(c))
}

func TestStoreCollectorReportsDown(t *testing.T) {
	c := NewStoreCollector(fakeStats{err: errors.New("closed")}, "orders")
	assert.Equal(t, 1, testutil.CollectAndCount(c))
	assert.Equal(t, 0.0, testutil.ToFloat64(c))
}
