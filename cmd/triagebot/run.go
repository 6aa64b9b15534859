package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sqlint/triagebot/internal/dispatch"
	"github.com/sqlint/triagebot/internal/triage"
	"github.com/sqlint/triagebot/internal/types"
)

var runEventFile string

// triggerEvent is the JSON shape delivered by tracker webhooks.
type triggerEvent struct {
	IssueID string `json:"issue_id"`
	Kind    string `json:"kind"`
}

var runCmd = &cobra.Command{
	Use:   "run [issue-id]",
	Short: "Run triage for an issue or a trigger event",
	Long: `Run the full triage pipeline for one issue: classify, assess
completeness, reconcile labels, and dispatch the planned actions.

Either pass an issue id directly, or pass --event with a JSON trigger
event file ('-' for stdin):

  triagebot run sq-42
  triagebot run --event event.json
  cat event.json | triagebot run --event -

Events whose kind is not in the configured triggers are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		issueID := ""
		kind := types.EventOpened
		switch {
		case len(args) == 1 && runEventFile == "":
			issueID = args[0]
		case len(args) == 0 && runEventFile != "":
			event, err := readTriggerEvent(runEventFile)
			if err != nil {
				return err
			}
			issueID = event.IssueID
			kind = types.EventKind(event.Kind)
			if !kind.IsValid() {
				return fmt.Errorf("invalid event kind: %s", event.Kind)
			}
		default:
			return fmt.Errorf("pass exactly one of an issue id or --event")
		}

		if !cfg.ShouldTriage(kind) {
			fmt.Printf("Event kind %q is not a configured trigger, skipping %s\n", kind, issueID)
			return nil
		}

		ctx := context.Background()
		tr, err := openTracker(ctx, cfg)
		if err != nil {
			return err
		}
		defer tr.Close()

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		runner, err := buildRunner(cfg, tr, store)
		if err != nil {
			return err
		}

		run, err := runner.Run(ctx, issueID)
		if err != nil {
			return err
		}
		printRunResult(run)
		return nil
	},
}

func readTriggerEvent(path string) (*triggerEvent, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}

	var event triggerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	if event.IssueID == "" {
		return nil, fmt.Errorf("event is missing issue_id")
	}
	return &event, nil
}

func printRunResult(run *triage.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	state := green(string(run.State))
	if run.State != dispatch.StateDone {
		state = yellow(string(run.State))
	}

	fmt.Printf("%s: %s (%s / %s / %s / %s)\n",
		run.IssueID, state,
		run.Classification.Type, run.Classification.Dialect,
		run.Classification.Component, run.Classification.Completeness)

	for _, intent := range run.Executed {
		switch intent.Kind {
		case types.IntentUpdateLabels:
			fmt.Printf("  labels -> %v\n", intent.Labels)
		case types.IntentComment:
			fmt.Printf("  comment posted\n")
		case types.IntentEscalate:
			fmt.Printf("  escalated: missing capability %s\n", intent.MissingCapability)
		case types.IntentNoop:
			fmt.Printf("  noop: %s\n", intent.Reason)
		}
	}
	for _, dropped := range run.Dropped {
		fmt.Printf("  %s %s: %s\n", yellow("dropped"), dropped.Intent.Kind, dropped.Reason)
	}
	for _, id := range run.EscalationIDs {
		fmt.Printf("  escalation issue: %s\n", id)
	}
}

func init() {
	runCmd.Flags().StringVar(&runEventFile, "event", "", "Trigger event JSON file ('-' for stdin)")
	rootCmd.AddCommand(runCmd)
}
