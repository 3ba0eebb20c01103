package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := env.Service.Statistics(cmd.Context())
		if err != nil {
			return err
		}
		trends, err := env.Service.Trends(cmd.Context(), statsDays)
		if err != nil {
			return err
		}

		fmt.Printf("Total reports:  %d\n", stats.Total)
		fmt.Printf("This month:     %d\n", stats.ThisMonth)
		fmt.Printf("Open:           %d\n", stats.Open)

		fmt.Println("\nBy status:")
		for _, s := range model.AllStatuses() {
			if n := stats.ByStatus[s]; n > 0 {
				fmt.Printf("  %-15s %d\n", s, n)
			}
		}

		fmt.Println("\nBy violation type:")
		for _, vt := range model.AllViolationTypes() {
			if n := stats.ByCategory[vt]; n > 0 {
				fmt.Printf("  %-25s %d\n", vt, n)
			}
		}

		if len(trends) > 0 {
			fmt.Printf("\nLast %d day(s):\n", statsDays)
			for _, p := range trends {
				fmt.Printf("  %s  %d\n", p.Date, p.Count)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 30, "trend window in days")
	rootCmd.AddCommand(statsCmd)
}
