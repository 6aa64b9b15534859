package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sqlint/triagebot/internal/events"
)

var (
	auditLimit int
	auditRunID string
)

var auditCmd = &cobra.Command{
	Use:   "audit [issue-id]",
	Short: "Show audit events",
	Long: `Show audit events from the local store, newest first. With an
issue id, only that issue's events are shown; --run filters to one run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		filter := events.EventFilter{Limit: auditLimit, RunID: auditRunID}
		if len(args) == 1 {
			filter.IssueID = args[0]
		}

		ctx := context.Background()
		evts, err := store.GetEvents(ctx, filter)
		if err != nil {
			return err
		}
		if len(evts) == 0 {
			fmt.Println("No events.")
			return nil
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		for _, e := range evts {
			severity := string(e.Severity)
			switch e.Severity {
			case events.SeverityWarning:
				severity = yellow(severity)
			case events.SeverityError:
				severity = red(severity)
			}
			fmt.Printf("%s  %-8s %-18s %-8s %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"),
				severity, e.Type, e.IssueID, e.Message)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum events to show")
	auditCmd.Flags().StringVar(&auditRunID, "run", "", "Filter to one run id")
	rootCmd.AddCommand(auditCmd)
}
