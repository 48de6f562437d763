package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/microservices/kitchen"
	"restaurant-shm/internal/microservices/waiter"
	"restaurant-shm/internal/store"
	"restaurant-shm/internal/supervisor"
)

var agentID int

var producerCmd = &cobra.Command{
	Use:   "producer",
	Short: "Run one producer agent against an existing segment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent(cmd.Context(), supervisor.RoleProducer)
	},
}

var consumerCmd = &cobra.Command{
	Use:   "consumer",
	Short: "Run one consumer agent against an existing segment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent(cmd.Context(), supervisor.RoleConsumer)
	},
}

func init() {
	for _, c := range []*cobra.Command{producerCmd, consumerCmd} {
		c.Flags().IntVar(&agentID, "id", 1, "Agent id (1-10)")
		rootCmd.AddCommand(c)
	}
}

// runAgent attaches to the segment and runs until SIGINT or SIGTERM. Failing
// to attach is the only error that ends the agent.
func runAgent(parent context.Context, role string) error {
	if agentID < 1 || agentID > supervisor.MaxAgents {
		return fmt.Errorf("%s id must be between 1 and %d, got %d", role, supervisor.MaxAgents, agentID)
	}
	lg := logger.New(role).With(map[string]any{"agent_id": agentID})

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.WaitAttach(ctx, storeOptions(cfg, lg), cfg.Store.AttachAttempts, cfg.Store.AttachDelay)
	if err != nil {
		lg.Error("attach_failed", err, map[string]any{"segment": cfg.Store.Name})
		return err
	}
	defer st.Close()

	source := fmt.Sprintf("%s-%d", role, agentID)
	pub, closePub := statusPublisher(ctx, cfg, source, lg)
	defer closePub()

	lg.Info("agent_started", map[string]any{"segment": st.Name()})
	if role == supervisor.RoleProducer {
		err = waiter.Run(ctx, st, pub, agentID, cfg.Producer)
	} else {
		err = kitchen.Run(ctx, st, pub, agentID, cfg.Consumer)
	}
	lg.Info("agent_stopped", nil)
	return err
}
