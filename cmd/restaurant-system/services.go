package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/connections/database"
	"restaurant-shm/internal/connections/rabbitmq"
	"restaurant-shm/internal/microservices/exporter"
	"restaurant-shm/internal/microservices/notificator"
	"restaurant-shm/internal/microservices/tracker"
	"restaurant-shm/internal/store"
)

var trackerPort int

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Serve the order tracker HTTP API for an existing segment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Tracker.Port = trackerPort
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Attach(storeOptions(cfg, logger.New("tracker")))
		if err != nil {
			return err
		}
		defer st.Close()
		return tracker.Start(ctx, cfg.Tracker.Port, st)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the current snapshot as CSV and JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Attach(storeOptions(cfg, logger.New("exporter")))
		if err != nil {
			return err
		}
		defer st.Close()
		res, err := exporter.Run(cmd.Context(), st, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.CSVPath)
		fmt.Fprintln(cmd.OutOrStdout(), res.JSONPath)
		return nil
	},
}

var notificatorCmd = &cobra.Command{
	Use:   "notificator",
	Short: "Consume order status events from RabbitMQ and log them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.RabbitMQ.Enabled {
			return errors.New("notificator needs rabbitmq.enabled")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := rabbitmq.Dial(ctx, cfg.RabbitMQ)
		if err != nil {
			return err
		}
		defer client.Close()
		return notificator.Start(ctx, client)
	},
}

// checkCmd verifies the optional backends are reachable.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Connect to PostgreSQL and RabbitMQ and report whether they answer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		return checkBackends(ctx)
	},
}

func checkBackends(ctx context.Context) error {
	lg := logger.New("check")
	var errs []error

	if cfg.Database.Enabled {
		pool, err := database.ConnectDB(ctx, cfg.Database)
		if err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		} else {
			lg.Info("postgres_connected", map[string]any{"host": cfg.Database.Host, "port": cfg.Database.Port, "database": cfg.Database.Database})
			pool.Close()
		}
	} else {
		lg.Info("postgres_disabled", nil)
	}

	if cfg.RabbitMQ.Enabled {
		client, err := rabbitmq.Dial(ctx, cfg.RabbitMQ)
		if err == nil {
			err = client.Ping()
			client.Close()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("rabbitmq: %w", err))
		} else {
			lg.Info("rabbitmq_connected", map[string]any{"host": cfg.RabbitMQ.Host, "port": cfg.RabbitMQ.Port, "vhost": cfg.RabbitMQ.VHost})
		}
	} else {
		lg.Info("rabbitmq_disabled", nil)
	}

	return errors.Join(errs...)
}

func init() {
	trackerCmd.Flags().IntVar(&trackerPort, "port", 0, "Listen port (default: from config)")
	rootCmd.AddCommand(trackerCmd, exportCmd, notificatorCmd, checkCmd)
}
