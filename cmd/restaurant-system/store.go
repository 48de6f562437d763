package main

import (
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the shared segment with an empty snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lg := logger.New("store")
		st, err := store.Initialize(storeOptions(cfg, lg))
		if err != nil {
			return err
		}
		lg.Info("store_initialized", map[string]any{"segment": st.Name(), "capacity": cfg.Store.Capacity})
		return st.Close()
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Remove the shared segment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lg := logger.New("store")
		if err := store.Destroy(storeOptions(cfg, lg)); err != nil {
			return err
		}
		lg.Info("store_destroyed", map[string]any{"segment": cfg.Store.Name})
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset the segment to an empty snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lg := logger.New("store")
		st, err := store.Attach(storeOptions(cfg, lg))
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Clear(cmd.Context()); err != nil {
			return err
		}
		lg.Info("store_cleared", map[string]any{"segment": st.Name()})
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics of the shared segment as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Attach(storeOptions(cfg, logger.New("store")))
		if err != nil {
			return err
		}
		defer st.Close()
		snap, err := st.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		out, err := sonic.ConfigStd.MarshalIndent(domain.NewStatsView(snap), "", "  ")
		if err != nil {
			return err
		}
		out = append(out, '\n')
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd, destroyCmd, clearCmd, statsCmd)
}
