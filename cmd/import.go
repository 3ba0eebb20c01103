package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mshadianto/wbs-bpkh-2026/internal/export"
	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import <backlog.xlsx>",
	Short: "Import a backlog worksheet of submissions",
	Long:  "Reads raw What/Who/When/Where/How rows from an XLSX worksheet, runs each through the triage pipeline and bulk-inserts the resulting reports. Rows whose identifier already exists are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		subs, err := export.ReadSubmissions(args[0])
		if err != nil {
			return err
		}

		reports := make([]model.Report, 0, len(subs))
		seen := make(map[string]int)
		for i := range subs {
			res, err := env.Pipeline.Process(ctx, subs[i])
			if err != nil {
				zap.L().Warn("import: skipping invalid row",
					zap.Int("row", i+1),
					zap.Error(err),
				)
				continue
			}
			// Rows processed within the same second share a base
			// identifier; suffix duplicates inside the batch.
			id := res.ReportID
			seen[id]++
			if n := seen[id]; n > 1 {
				id = fmt.Sprintf("%s-%d", id, n)
			}
			now := time.Now().UTC()
			reports = append(reports, model.Report{
				ID:             id,
				Submission:     subs[i],
				Status:         model.StatusNew,
				Classification: &res.Classification,
				Routing:        &res.Routing,
				Investigation:  &res.Investigation,
				Compliance:     &res.Compliance,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
		}

		n, err := env.Store.ImportReports(ctx, reports)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d of %d row(s) from %s\n", n, len(subs), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
