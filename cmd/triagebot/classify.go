package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlint/triagebot/internal/repl"
	"github.com/sqlint/triagebot/internal/types"
)

var (
	classifyTitle    string
	classifyBodyFile string
)

var classifyCmd = &cobra.Command{
	Use:   "classify [issue-id]",
	Short: "Classify an issue without writing anything",
	Long: `Classify an issue and show the resolved axes, the completeness
checklist outcome and the evidence signals. Nothing is written to the
tracker or the audit trail.

Either pass an issue id, or classify ad-hoc text:

  triagebot classify sq-42
  triagebot classify --title "TOP not parsing" --body report.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
		var snap *types.IssueSnapshot

		switch {
		case len(args) == 1 && classifyTitle == "":
			tr, err := openTracker(ctx, cfg)
			if err != nil {
				return err
			}
			defer tr.Close()
			snap, err = tr.Snapshot(ctx, args[0])
			if err != nil {
				return err
			}
		case len(args) == 0 && classifyTitle != "":
			body := ""
			if classifyBodyFile != "" {
				data, err := os.ReadFile(classifyBodyFile)
				if err != nil {
					return fmt.Errorf("failed to read body file: %w", err)
				}
				body = string(data)
			}
			snap = types.NewAdhocSnapshot(classifyTitle, body)
		default:
			return fmt.Errorf("pass exactly one of an issue id or --title")
		}

		// Dry run: no tracker writes, no audit trail.
		runner, err := buildRunner(cfg, nil, nil)
		if err != nil {
			return err
		}
		result, assessment, signals, err := runner.Classify(ctx, snap)
		if err != nil {
			return err
		}
		fmt.Print(repl.FormatClassification(result, assessment, signals))
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyTitle, "title", "", "Ad-hoc issue title")
	classifyCmd.Flags().StringVar(&classifyBodyFile, "body", "", "File containing the ad-hoc issue body")
	rootCmd.AddCommand(classifyCmd)
}
