package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/microservices/exporter/repository"
)

type staticSource struct{ snap domain.Snapshot }

func (s staticSource) Snapshot(context.Context) (domain.Snapshot, error) { return s.snap, nil }
func (s staticSource) Name() string                                      { return "orders_test" }

type fakeArchive struct {
	segment string
	orders  int
	err     error
}

func (f *fakeArchive) EnsureSchema(context.Context) error { return nil }

func (f *fakeArchive) Archive(_ context.Context, segment string, _ domain.StatsView, orders []domain.OrderView, _ time.Time) error {
	f.segment, f.orders = segment, len(orders)
	return f.err
}

var _ repository.ArchiveRepoInterface = (*fakeArchive)(nil)

func sampleSnapshot() domain.Snapshot {
	created := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	a := domain.Order{ID: 1000001, Table: 3, Item: "Caesar Salad", CreatedAt: created, Status: domain.StatusCompleted, ProducerID: 1, ConsumerID: 2}
	b := domain.Order{ID: 2000001, Table: 7, Item: "Lasagna, Bolognese", CreatedAt: created, Status: domain.StatusPending, ProducerID: 2, ConsumerID: domain.UnassignedConsumer}
	return domain.Snapshot{
		Orders: []domain.Order{a, b},
		Stats:  domain.Statistics{TotalCreated: 2, TotalProcessed: 1, InQueue: 1},
	}
}

func TestWriteCSV(t *testing.T) {
	r := NewReport(sampleSnapshot(), Parameters{Producers: 2, Consumers: 3})
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r))

	// sections differ in width; blank separator lines are skipped by the reader
	rd := csv.NewReader(&buf)
	rd.FieldsPerRecord = -1
	rows, err := rd.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Duration (seconds)", "unlimited"}, rows[3])
	assert.Equal(t, []string{"Total processed", "1"}, rows[7])
	assert.Equal(t, []string{"In preparation", "0"}, rows[9])

	last := rows[len(rows)-1]
	assert.Equal(t, "2000001", last[0])
	assert.Equal(t, "Lasagna, Bolognese", last[2])
	assert.Equal(t, "N/A", last[5])
	assert.Equal(t, "2", rows[len(rows)-2][5])
}

func TestWriteJSON(t *testing.T) {
	r := NewReport(sampleSnapshot(), Parameters{Producers: 1, Consumers: 1, Duration: 90 * time.Second})
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var doc map[string]any
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &doc))
	params := doc["parameters"].(map[string]any)
	assert.EqualValues(t, 90, params["duration_seconds"])

	orders := doc["orders"].([]any)
	require.Len(t, orders, 2)
	assert.Nil(t, orders[1].(map[string]any)["consumer_id"])
	stats := doc["statistics"].(map[string]any)
	assert.EqualValues(t, 2, stats["total_created"])
}

func TestExportWritesFilesAndArchives(t *testing.T) {
	dir := t.TempDir()
	archive := &fakeArchive{}
	svc := NewExporterService(staticSource{snap: sampleSnapshot()}, archive, dir, nil)

	res, err := svc.Export(context.Background(), Parameters{Producers: 2, Consumers: 2})
	require.NoError(t, err)
	assert.True(t, res.Archived)
	assert.Equal(t, 2, res.Orders)
	assert.Equal(t, "orders_test", archive.segment)
	assert.Regexp(t, `orders_\d{8}_\d{6}\.csv$`, res.CSVPath)
	assert.Regexp(t, `orders_\d{8}_\d{6}\.json$`, res.JSONPath)

	for _, p := range []string{res.CSVPath, res.JSONPath} {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, fi.Size())
	}
}

func TestExportArchiveFailureKeepsFiles(t *testing.T) {
	svc := NewExporterService(staticSource{snap: domain.EmptySnapshot()}, &fakeArchive{err: errors.New("db down")}, t.TempDir(), nil)

	res, err := svc.Export(context.Background(), Parameters{})
	assert.Error(t, err)
	assert.False(t, res.Archived)
	assert.FileExists(t, res.CSVPath)
}
