// Package repl provides the interactive triage console.
package repl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/sqlint/triagebot/internal/storage"
	"github.com/sqlint/triagebot/internal/tracker"
	"github.com/sqlint/triagebot/internal/triage"
	"github.com/sqlint/triagebot/internal/types"
)

// REPL represents the interactive shell
type REPL struct {
	runner   *triage.Runner
	tracker  tracker.Tracker
	store    storage.Store
	rl       *readline.Instance
	ctx      context.Context
	commands map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Runner  *triage.Runner
	Tracker tracker.Tracker
	Store   storage.Store
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("tracker is required")
	}

	r := &REPL{
		runner:   cfg.Runner,
		tracker:  cfg.Tracker,
		store:    cfg.Store,
		commands: make(map[string]CommandHandler),
	}
	r.registerCommands()
	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("triage> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s %v\n", red("Error:"), err)
		}
	}
}

// processInput processes a single line of input
func (r *REPL) processInput(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	command := parts[0]
	args := parts[1:]

	if handler, ok := r.commands[command]; ok {
		return handler(args)
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Printf("%s Unknown command %q. Use 'help' for available commands.\n", yellow("Note:"), command)
	return nil
}

func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
	r.commands["show"] = r.cmdShow
	r.commands["classify"] = r.cmdClassify
	r.commands["try"] = r.cmdTry
	r.commands["run"] = r.cmdRun
	r.commands["events"] = r.cmdEvents
}

func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("triagebot interactive console"))
	fmt.Println("Classify issues, preview label changes, and inspect audit events.")
	fmt.Println()
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()
}

func (r *REPL) cmdHelp(_ []string) error {
	fmt.Println("Available commands:")
	fmt.Println("  show <issue-id>      Show an issue snapshot and its labels")
	fmt.Println("  classify <issue-id>  Classify an issue without touching the tracker")
	fmt.Println("  try <title>          Classify ad-hoc text (body read until a lone '.')")
	fmt.Println("  run <issue-id>       Run full triage against the tracker")
	fmt.Println("  events <issue-id>    Show audit events for an issue")
	fmt.Println("  help, ?              Show this help")
	fmt.Println("  exit, quit           Leave the console")
	return nil
}

func (r *REPL) cmdExit(_ []string) error {
	fmt.Println("Goodbye!")
	return io.EOF
}

func (r *REPL) cmdShow(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show <issue-id>")
	}
	snap, err := r.tracker.Snapshot(r.ctx, args[0])
	if err != nil {
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s %s\n", bold(snap.ID), snap.Title)
	if len(snap.Labels) > 0 {
		fmt.Printf("Labels: %s\n", strings.Join(snap.Labels, ", "))
	} else {
		fmt.Println("Labels: (none)")
	}
	if snap.Body != "" {
		fmt.Println()
		fmt.Println(snap.Body)
	}
	return nil
}

func (r *REPL) cmdClassify(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: classify <issue-id>")
	}
	snap, err := r.tracker.Snapshot(r.ctx, args[0])
	if err != nil {
		return err
	}
	return r.classifySnapshot(snap)
}

// cmdTry classifies ad-hoc text without any tracker issue behind it. The
// body is read line by line until a lone "." terminates it.
func (r *REPL) cmdTry(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: try <title>")
	}
	title := strings.Join(args, " ")

	fmt.Println("Enter the issue body, end with a single '.' on its own line:")
	var lines []string
	for {
		line, err := r.rl.Readline()
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "." {
			break
		}
		lines = append(lines, line)
	}

	snap := types.NewAdhocSnapshot(title, strings.Join(lines, "\n"))
	return r.classifySnapshot(snap)
}

func (r *REPL) classifySnapshot(snap *types.IssueSnapshot) error {
	result, assessment, signals, err := r.runner.Classify(r.ctx, snap)
	if err != nil {
		return err
	}
	fmt.Print(FormatClassification(result, assessment, signals))
	return nil
}

func (r *REPL) cmdRun(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: run <issue-id>")
	}
	run, err := r.runner.Run(r.ctx, args[0])
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	state := green(string(run.State))
	if run.State != "done" {
		state = yellow(string(run.State))
	}
	fmt.Printf("Run %s finished: %s (%d attempt(s), %d executed, %d dropped)\n",
		run.RunID, state, run.Attempts, len(run.Executed), len(run.Dropped))
	for _, dropped := range run.Dropped {
		fmt.Printf("  dropped %s: %s\n", dropped.Intent.Kind, dropped.Reason)
	}
	for _, id := range run.EscalationIDs {
		fmt.Printf("  escalation filed: %s\n", id)
	}
	return nil
}

func (r *REPL) cmdEvents(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: events <issue-id>")
	}
	if r.store == nil {
		return fmt.Errorf("no audit store configured")
	}
	evts, err := r.store.GetEventsByIssue(r.ctx, args[0])
	if err != nil {
		return err
	}
	if len(evts) == 0 {
		fmt.Println("No events.")
		return nil
	}
	for _, e := range evts {
		fmt.Printf("%s  %-18s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, e.Message)
	}
	return nil
}
