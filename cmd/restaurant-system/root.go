package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/config"
	"restaurant-shm/internal/connections/rabbitmq"
	"restaurant-shm/internal/store"
)

var (
	cfgFile  string
	logLevel string

	// cfg is loaded once per invocation by the root pre-run hook.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "restaurant-system",
	Short: "Restaurant order pipeline over a shared memory segment",
	Long: `restaurant-system simulates a restaurant: producer processes place orders
into a shared memory segment and consumer processes prepare them.

Use "run" to start the whole system, or the individual agent and
maintenance commands to work with an existing segment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Logging.Level = logLevel
		}
		if err := logger.Configure(logger.Config{Level: c.Logging.Level, Development: c.Logging.Development}); err != nil {
			return fmt.Errorf("configure logger: %w", err)
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file path (default: ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (default: from config or env)")
}

func storeOptions(c *config.Config, lg *logger.Logger) store.Options {
	return store.Options{
		Name:        c.Store.Name,
		Dir:         c.Store.Dir,
		Capacity:    c.Store.Capacity,
		MaxAttempts: c.Store.MaxAttempts,
		RetryDelay:  c.Store.RetryDelay,
		Logger:      lg,
	}
}

// statusPublisher connects to RabbitMQ when it is enabled. A broker that
// cannot be reached degrades to the no-op publisher; the pipeline itself
// never depends on it.
func statusPublisher(ctx context.Context, c *config.Config, source string, lg *logger.Logger) (rabbitmq.StatusPublisher, func()) {
	if !c.RabbitMQ.Enabled {
		return rabbitmq.NopPublisher{}, func() {}
	}
	client, err := rabbitmq.Dial(ctx, c.RabbitMQ)
	if err == nil {
		err = client.DeclareNotifications()
		if err != nil {
			client.Close()
		}
	}
	if err != nil {
		lg.Warn("rabbitmq_unavailable", map[string]any{"error": err.Error()})
		return rabbitmq.NopPublisher{}, func() {}
	}
	return rabbitmq.NewEventPublisher(client, source), client.Close
}

// forwardArgs are the persistent flags handed down to agent processes.
func forwardArgs() []string {
	var args []string
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	if logLevel != "" {
		args = append(args, "--log-level", logLevel)
	}
	return args
}
