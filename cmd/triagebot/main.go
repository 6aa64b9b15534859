// triagebot classifies and dispatches issues for the sqlint issue tracker.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlint/triagebot/internal/config"
	"github.com/sqlint/triagebot/internal/scorer"
	"github.com/sqlint/triagebot/internal/storage"
	"github.com/sqlint/triagebot/internal/tracker"
	"github.com/sqlint/triagebot/internal/tracker/beadstracker"
	"github.com/sqlint/triagebot/internal/triage"
)

var (
	projectRoot string
	actorFlag   string
	dbPathFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "triagebot",
	Short: "Deterministic issue triage for sqlint",
	Long: `triagebot classifies incoming sqlint issues along four axes (type,
dialect, component, completeness), reconciles namespaced labels without
ever removing one, asks for missing report details, and records every
outcome in a local audit trail.

All writes go through a per-run quota and the granted capability set;
anything the bot is not allowed to do is surfaced as an escalation
issue rather than silently skipped.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "Project root containing .triagebot/")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "Override the actor identity for writes")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Override the tracker database path")
}

// loadConfig resolves the runtime configuration with flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return nil, err
	}
	if actorFlag != "" {
		cfg.Actor = actorFlag
	}
	if dbPathFlag != "" {
		cfg.TrackerDBPath = dbPathFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openTracker(ctx context.Context, cfg *config.Config) (*beadstracker.Tracker, error) {
	return beadstracker.Open(ctx, cfg.TrackerDBPath, cfg.Capabilities)
}

func openStore(cfg *config.Config) (storage.Store, error) {
	return storage.New(cfg.Audit.Path)
}

// buildRunner wires the triage pipeline from the resolved config. tr
// may be nil for dry runs that never touch the tracker. The LLM scorer
// is only attached when enabled and an API key is present; otherwise
// the deterministic pattern scorer runs alone.
func buildRunner(cfg *config.Config, tr tracker.Tracker, store storage.Store) (*triage.Runner, error) {
	var sc scorer.Scorer
	if cfg.ScorerEnabled {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			fmt.Fprintf(os.Stderr, "Warning: scorer enabled but ANTHROPIC_API_KEY is not set, using patterns only\n")
		} else {
			llm, err := scorer.NewAnthropicScorer(apiKey, cfg.ScorerModel, cfg.Dialects)
			if err != nil {
				return nil, fmt.Errorf("failed to create scorer: %w", err)
			}
			sc = llm
		}
	}
	if sc == nil {
		sc = scorer.NewPatternScorer(cfg.Dialects)
	}

	return triage.New(tr, sc, store, triage.Config{
		Actor:       cfg.Actor,
		MaxAttempts: cfg.MaxAttempts,
		Quota:       cfg.Quota,
	}), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
