package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mshadianto/wbs-bpkh-2026/internal/export"
	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
	"github.com/mshadianto/wbs-bpkh-2026/internal/store"
)

var exportFlags struct {
	out    string
	status string
	unit   string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export reports to an XLSX case worksheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		reports, err := env.Service.List(cmd.Context(), store.ReportFilter{
			Status: model.ReportStatus(exportFlags.status),
			Unit:   model.Unit(exportFlags.unit),
		})
		if err != nil {
			return err
		}

		if err := export.WriteReports(exportFlags.out, reports); err != nil {
			return err
		}
		fmt.Printf("Wrote %d report(s) to %s\n", len(reports), exportFlags.out)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.out, "out", "laporan.xlsx", "output file")
	f.StringVar(&exportFlags.status, "status", "", "filter by status")
	f.StringVar(&exportFlags.unit, "unit", "", "filter by assigned unit")
	rootCmd.AddCommand(exportCmd)
}
