package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mshadianto/wbs-bpkh-2026/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "wbs",
	Short: "Whistleblowing report intake and triage",
	Long:  "Receives 4W+1H whistleblowing submissions, classifies and routes them through a staged triage pipeline, and tracks cases until resolution.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
