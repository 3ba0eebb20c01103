package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

var submitFlags model.Submission

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a single report from the command line",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		submitFlags.Channel = model.ChannelCLI
		receipt, err := env.Service.Submit(cmd.Context(), submitFlags)
		if err != nil {
			return err
		}

		res := receipt.Result
		fmt.Printf("Report ID:   %s\n", receipt.ReportID)
		fmt.Printf("Access PIN:  %s (shown once, keep it safe)\n", receipt.PIN)
		fmt.Printf("Violation:   %s (%s)\n", res.Classification.ViolationType, res.Classification.ViolationCode)
		fmt.Printf("Severity:    %s / %s\n", res.Classification.Severity, res.Classification.Priority)
		fmt.Printf("Routed to:   %s\n", res.Routing.Unit)
		fmt.Printf("SLA:         %s\n", res.Routing.SLADeadline.Local().Format(time.RFC1123))
		fmt.Printf("Compliance:  %.1f (%s)\n", res.Compliance.Score, res.Compliance.RegulatoryStatus)
		return nil
	},
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&submitFlags.What, "what", "", "what happened (required)")
	f.StringVar(&submitFlags.Who, "who", "", "who was involved")
	f.StringVar(&submitFlags.When, "when", "", "when it happened")
	f.StringVar(&submitFlags.Where, "where", "", "where it happened")
	f.StringVar(&submitFlags.How, "how", "", "how it happened")
	f.StringVar(&submitFlags.Evidence, "evidence", "", "evidence description")
	f.StringVar(&submitFlags.Contact, "contact", "", "reporter contact (omit for anonymous)")
	_ = submitCmd.MarkFlagRequired("what")
	rootCmd.AddCommand(submitCmd)
}
