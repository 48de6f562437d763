package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"restaurant-shm/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS order_archive (
    id           BIGINT PRIMARY KEY,
    table_number INT         NOT NULL,
    item         TEXT        NOT NULL,
    status       TEXT        NOT NULL,
    producer_id  INT         NOT NULL,
    consumer_id  INT,
    created_at   TIMESTAMPTZ NOT NULL,
    archived_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS snapshot_stats (
    id              BIGSERIAL PRIMARY KEY,
    segment         TEXT        NOT NULL,
    total_created   BIGINT      NOT NULL,
    total_processed BIGINT      NOT NULL,
    in_queue        INT         NOT NULL,
    in_preparation  INT         NOT NULL,
    taken_at        TIMESTAMPTZ NOT NULL
);`

const upsertOrder = `
INSERT INTO order_archive (id, table_number, item, status, producer_id, consumer_id, created_at, archived_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,now())
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  consumer_id = EXCLUDED.consumer_id,
  archived_at = EXCLUDED.archived_at`

const insertStats = `
INSERT INTO snapshot_stats (segment, total_created, total_processed, in_queue, in_preparation, taken_at)
VALUES ($1,$2,$3,$4,$5,$6)`

type ArchiveRepoInterface interface {
	EnsureSchema(ctx context.Context) error
	Archive(ctx context.Context, segment string, stats domain.StatsView, orders []domain.OrderView, takenAt time.Time) error
}

// DB is the subset of *pgxpool.Pool the archive needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type ArchiveRepo struct {
	db DB
}

func NewArchiveRepo(db DB) *ArchiveRepo { return &ArchiveRepo{db: db} }

func (r *ArchiveRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	return nil
}

// Archive upserts every order and appends one stats row in a single
// transaction.
func (r *ArchiveRepo) Archive(ctx context.Context, segment string, stats domain.StatsView, orders []domain.OrderView, takenAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, BuildBatch(segment, stats, orders, takenAt))
	if err := br.Close(); err != nil {
		return fmt.Errorf("archive batch: %w", err)
	}
	return tx.Commit(ctx)
}

func BuildBatch(segment string, stats domain.StatsView, orders []domain.OrderView, takenAt time.Time) *pgx.Batch {
	b := &pgx.Batch{}
	for _, o := range orders {
		b.Queue(upsertOrder, o.ID, o.Table, o.Item, string(o.Status), o.ProducerID, o.ConsumerID, o.CreatedAt)
	}
	b.Queue(insertStats, segment, stats.TotalCreated, stats.TotalProcessed, stats.InQueue, stats.InPreparation, takenAt)
	return b
}
