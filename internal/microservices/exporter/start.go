package exporter

import (
	"context"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/config"
	"restaurant-shm/internal/connections/database"
	"restaurant-shm/internal/microservices/exporter/repository"
	"restaurant-shm/internal/microservices/exporter/service"
	"restaurant-shm/internal/store"
)

// Run exports the current contents of st once. With the database enabled the
// snapshot is also archived to PostgreSQL.
func Run(ctx context.Context, st *store.Store, cfg *config.Config) (service.Result, error) {
	lg := logger.New("exporter")

	var archive repository.ArchiveRepoInterface
	if cfg.Database.Enabled {
		pool, err := database.ConnectDB(ctx, cfg.Database)
		if err != nil {
			lg.Error("db_connect_failed", err, nil)
			return service.Result{}, err
		}
		defer pool.Close()

		repo := repository.NewArchiveRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return service.Result{}, err
		}
		archive = repo
	}

	svc := service.NewExporterService(st, archive, cfg.Export.Dir, lg)
	res, err := svc.Export(ctx, service.Parameters{
		Producers: cfg.System.Producers,
		Consumers: cfg.System.Consumers,
		Duration:  cfg.System.Duration,
	})
	if err != nil {
		lg.Error("export_failed", err, nil)
	}
	return res, err
}
