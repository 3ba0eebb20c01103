package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mshadianto/wbs-bpkh-2026/internal/sla"
)

var watchSchedule string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the SLA deadline watcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		schedule := watchSchedule
		if schedule == "" {
			schedule = cfg.SLA.Schedule
		}

		watcher, err := sla.New(env.Store, env.Sender, schedule)
		if err != nil {
			return err
		}
		if err := watcher.Run(ctx); err != nil && !eris.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron schedule (default from config)")
	rootCmd.AddCommand(watchCmd)
}
