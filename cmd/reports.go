package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
	"github.com/mshadianto/wbs-bpkh-2026/internal/store"
)

var reportsFilter struct {
	status        string
	violationType string
	severity      string
	unit          string
	limit         int
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List reports for case handlers",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		reports, err := env.Service.List(cmd.Context(), store.ReportFilter{
			Status:        model.ReportStatus(reportsFilter.status),
			ViolationType: model.ViolationType(reportsFilter.violationType),
			Severity:      model.Severity(reportsFilter.severity),
			Unit:          model.Unit(reportsFilter.unit),
			Limit:         reportsFilter.limit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tVIOLATION\tSEVERITY\tUNIT\tSLA\tASSIGNED")
		for i := range reports {
			r := &reports[i]
			var violation, severity, unit, sla string
			if r.Classification != nil {
				violation = string(r.Classification.ViolationType)
				severity = string(r.Classification.Severity)
			}
			if r.Routing != nil {
				unit = string(r.Routing.Unit)
				sla = r.Routing.SLADeadline.Local().Format(time.DateTime)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Status, violation, severity, unit, sla, r.AssignedTo)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d report(s)\n", len(reports))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <report-id> <new-status>",
	Short: "Update the status of a report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		note, _ := cmd.Flags().GetString("note")
		if err := env.Service.UpdateStatus(cmd.Context(), args[0], model.ReportStatus(args[1]), note); err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", args[0], args[1])
		return nil
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign <report-id> <assignee>",
	Short: "Assign a report to an investigator",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.Assign(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s assigned to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	f := reportsCmd.Flags()
	f.StringVar(&reportsFilter.status, "status", "", "filter by status")
	f.StringVar(&reportsFilter.violationType, "violation-type", "", "filter by violation type")
	f.StringVar(&reportsFilter.severity, "severity", "", "filter by severity")
	f.StringVar(&reportsFilter.unit, "unit", "", "filter by assigned unit")
	f.IntVar(&reportsFilter.limit, "limit", 50, "maximum rows")

	statusCmd.Flags().String("note", "", "resolution note")

	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(assignCmd)
}
