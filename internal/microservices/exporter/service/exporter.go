package service

import (
	"context"
	"fmt"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/microservices/exporter/repository"
)

type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	Name() string
}

type ExporterServiceInterface interface {
	Export(ctx context.Context, params Parameters) (Result, error)
}

type Result struct {
	CSVPath  string
	JSONPath string
	Archived bool
	Orders   int
}

type ExporterService struct {
	src     SnapshotSource
	archive repository.ArchiveRepoInterface // nil when PostgreSQL is disabled
	dir     string
	log     *logger.Logger
}

func NewExporterService(src SnapshotSource, archive repository.ArchiveRepoInterface, dir string, lg *logger.Logger) *ExporterService {
	if lg == nil {
		lg = logger.NewNop()
	}
	return &ExporterService{src: src, archive: archive, dir: dir, log: lg}
}

// Export takes one snapshot and writes it to every configured sink. Files are
// written first; an archive failure is returned after them.
func (s *ExporterService) Export(ctx context.Context, params Parameters) (Result, error) {
	snap, err := s.src.Snapshot(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read snapshot: %w", err)
	}
	r := NewReport(snap, params)

	csvPath, jsonPath, err := ExportFiles(s.dir, r)
	if err != nil {
		return Result{}, err
	}
	res := Result{CSVPath: csvPath, JSONPath: jsonPath, Orders: len(r.Orders)}
	s.log.Info("export_written", map[string]any{"csv": csvPath, "json": jsonPath, "orders": res.Orders})

	if s.archive == nil {
		return res, nil
	}
	if err := s.archive.Archive(ctx, s.src.Name(), r.Stats, r.Orders, r.Parameters.ExportedAt); err != nil {
		return res, fmt.Errorf("archive snapshot: %w", err)
	}
	res.Archived = true
	s.log.Info("export_archived", map[string]any{"orders": res.Orders})
	return res, nil
}
