package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/microservices/exporter"
	"restaurant-shm/internal/microservices/tracker"
	"restaurant-shm/internal/store"
	"restaurant-shm/internal/supervisor"
)

const statsEvery = 5 * time.Second

var (
	runProducers int
	runConsumers int
	runDuration  time.Duration
	runExport    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create the segment and run producers, consumers and the tracker",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("producers") {
			cfg.System.Producers = runProducers
		}
		if flags.Changed("consumers") {
			cfg.System.Consumers = runConsumers
		}
		if flags.Changed("duration") {
			cfg.System.Duration = runDuration
		}
		if flags.Changed("export") {
			cfg.Export.OnShutdown = runExport
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runSystem(cmd.Context())
	},
}

func init() {
	runCmd.Flags().IntVar(&runProducers, "producers", 0, "Number of producer processes (1-10)")
	runCmd.Flags().IntVar(&runConsumers, "consumers", 0, "Number of consumer processes (1-10)")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "Stop automatically after this long (0 runs until interrupted)")
	runCmd.Flags().BoolVar(&runExport, "export", false, "Export the final snapshot on shutdown")
	rootCmd.AddCommand(runCmd)
}

func runSystem(parent context.Context) error {
	lg := logger.New("orchestrator")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.System.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.System.Duration)
		defer cancel()
	}

	st, err := store.Initialize(storeOptions(cfg, lg))
	if err != nil {
		lg.Error("store_init_failed", err, nil)
		return err
	}
	defer func() {
		if err := st.Destroy(); err != nil {
			lg.Error("store_destroy_failed", err, nil)
			return
		}
		lg.Info("store_destroyed", map[string]any{"segment": st.Name()})
	}()
	lg.Info("store_initialized", map[string]any{"segment": st.Name(), "capacity": cfg.Store.Capacity})

	// the tracker outlives ctx so it keeps serving while agents drain
	trackerDone := make(chan error, 1)
	trackerCtx, cancelTracker := context.WithCancel(context.Background())
	stopTracker := func() error {
		cancelTracker()
		return <-trackerDone
	}
	if cfg.Tracker.Enabled {
		go func() { trackerDone <- tracker.Start(trackerCtx, cfg.Tracker.Port, st) }()
	} else {
		trackerDone <- nil
	}

	command, err := supervisor.SelfCommand(forwardArgs()...)
	if err != nil {
		_ = stopTracker()
		return err
	}
	sup := supervisor.New(supervisor.Config{
		Producers:   cfg.System.Producers,
		Consumers:   cfg.System.Consumers,
		Stagger:     cfg.System.StartStagger,
		JoinTimeout: cfg.System.JoinTimeout,
		Command:     command,
	}, lg)
	if err := sup.Start(ctx); err != nil {
		_ = stopTracker()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		lg.Error("agents_start_failed", err, nil)
		return err
	}
	lg.Info("system_started", map[string]any{
		"producers": cfg.System.Producers,
		"consumers": cfg.System.Consumers,
		"duration":  cfg.System.Duration.String(),
	})

	watch(ctx, st, sup, lg)

	lg.Info("shutdown_requested", map[string]any{"reason": context.Cause(ctx).Error()})
	sup.Stop()

	if cfg.Export.OnShutdown {
		// the parent context is done by now; the export gets its own deadline
		exportCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, _ = exporter.Run(exportCtx, st, cfg)
		cancel()
	}

	return stopTracker()
}

// watch logs statistics periodically until ctx ends.
func watch(ctx context.Context, st *store.Store, sup *supervisor.Supervisor, lg *logger.Logger) {
	ticker := time.NewTicker(statsEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		stats, err := st.Statistics(ctx)
		if err != nil {
			if ctx.Err() == nil {
				lg.Warn("stats_read_failed", map[string]any{"error": err.Error()})
			}
			continue
		}
		lg.Info("system_stats", map[string]any{
			"total_created":   stats.TotalCreated,
			"total_processed": stats.TotalProcessed,
			"in_queue":        stats.InQueue,
			"producers_alive": sup.Alive(supervisor.RoleProducer),
			"consumers_alive": sup.Alive(supervisor.RoleConsumer),
		})
	}
}
