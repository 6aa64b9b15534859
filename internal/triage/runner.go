// Package triage orchestrates one classification run end to end.
//
// A run is: snapshot -> signals -> classification -> completeness
// assessment -> label reconciliation -> action planning -> dispatch.
// Everything up to dispatch is pure; the runner owns the read-reconcile-
// write cycle around it, retrying a bounded number of times when another
// actor changes the labels between read and write.
package triage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/sqlint/triagebot/internal/assess"
	"github.com/sqlint/triagebot/internal/classify"
	"github.com/sqlint/triagebot/internal/dispatch"
	"github.com/sqlint/triagebot/internal/events"
	"github.com/sqlint/triagebot/internal/plan"
	"github.com/sqlint/triagebot/internal/reconcile"
	"github.com/sqlint/triagebot/internal/scorer"
	"github.com/sqlint/triagebot/internal/storage"
	"github.com/sqlint/triagebot/internal/tracker"
	"github.com/sqlint/triagebot/internal/types"
)

// Config holds triage runner configuration
type Config struct {
	// Actor is the identity used for tracker writes and audit events
	// Default: "triagebot"
	Actor string
	// MaxAttempts bounds the read-reconcile-write cycles when label writes
	// conflict with concurrent actors
	// Default: 3
	MaxAttempts int
	// Quota holds the per-run output ceilings
	Quota dispatch.QuotaConfig
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Actor:       "triagebot",
		MaxAttempts: 3,
		Quota:       dispatch.DefaultQuotaConfig(),
	}
}

// RunResult summarizes one completed triage run.
type RunResult struct {
	// RunID uniquely identifies this run in the audit trail
	RunID string `json:"run_id"`
	// IssueID is the triaged issue
	IssueID string `json:"issue_id"`
	// State is the terminal state the run reached
	State dispatch.State `json:"state"`
	// Attempts is how many read-reconcile-write cycles were needed
	Attempts int `json:"attempts"`
	// Classification is the resolved axes
	Classification types.ClassificationResult `json:"classification"`
	// Assessment is the completeness checklist outcome
	Assessment assess.Assessment `json:"assessment"`
	// Signals is the evidence the classification was derived from
	Signals []types.Signal `json:"signals,omitempty"`
	// Diff is the label additions proposed on the final attempt
	Diff types.LabelDiff `json:"diff"`
	// Executed lists the applied intents
	Executed []types.ActionIntent `json:"executed,omitempty"`
	// Dropped lists refused intents with reasons
	Dropped []dispatch.DroppedIntent `json:"dropped,omitempty"`
	// EscalationIDs are ids of escalation issues filed this run
	EscalationIDs []string `json:"escalation_ids,omitempty"`
}

// Runner drives triage runs against one tracker.
type Runner struct {
	tracker    tracker.Tracker
	scorer     scorer.Scorer
	fallback   *scorer.PatternScorer
	store      storage.Store
	dispatcher *dispatch.Dispatcher
	cfg        Config
}

// New creates a runner. sc may be nil to use the deterministic pattern
// scorer; store may be nil to disable the audit trail.
func New(tr tracker.Tracker, sc scorer.Scorer, store storage.Store, cfg Config) *Runner {
	if cfg.Actor == "" {
		cfg.Actor = "triagebot"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Quota == (dispatch.QuotaConfig{}) {
		cfg.Quota = dispatch.DefaultQuotaConfig()
	}
	fallback := scorer.NewPatternScorer(nil)
	if sc == nil {
		sc = fallback
	}
	return &Runner{
		tracker:    tr,
		scorer:     sc,
		fallback:   fallback,
		store:      store,
		dispatcher: dispatch.New(tr, store, cfg.Quota, cfg.Actor),
		cfg:        cfg,
	}
}

// Classify runs the pure pipeline stages on a snapshot without touching
// the tracker. Used by dry runs and the interactive console.
func (r *Runner) Classify(ctx context.Context, snap *types.IssueSnapshot) (types.ClassificationResult, assess.Assessment, []types.Signal, error) {
	if err := snap.Validate(); err != nil {
		return types.ClassificationResult{}, assess.Assessment{}, nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	signals, err := r.scorer.Score(ctx, snap)
	if err != nil {
		// A scorer failure must not kill the run; fall back to the
		// deterministic patterns.
		fmt.Fprintf(os.Stderr, "Warning: scorer failed, using pattern fallback: %v\n", err)
		signals, _ = r.fallback.Score(ctx, snap)
	}

	result := classify.Resolve(signals)
	assessment := assess.Assess(snap, result.Type, signals)
	result.Completeness = assessment.Completeness
	return result, assessment, signals, nil
}

// Run triages one issue. The snapshot and classification are computed
// once; the reconcile-plan-dispatch cycle repeats with freshly read
// labels until the label write lands, up to MaxAttempts. Exhausting the
// attempts ends the run Blocked, never half-applied.
func (r *Runner) Run(ctx context.Context, issueID string) (*RunResult, error) {
	runID := uuid.New().String()

	snap, err := r.tracker.Snapshot(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to read issue %s: %w", issueID, err)
	}

	r.storeEvent(ctx, events.NewRunStarted(runID, issueID, r.cfg.Actor, string(snap.Kind)))

	result, assessment, signals, err := r.Classify(ctx, snap)
	if err != nil {
		return nil, err
	}

	r.storeEvent(ctx, events.NewClassified(runID, issueID, r.cfg.Actor,
		string(result.Type), result.Dialect, string(result.Component),
		string(result.Completeness)))

	run := &RunResult{
		RunID:          runID,
		IssueID:        issueID,
		Classification: result,
		Assessment:     assessment,
		Signals:        signals,
	}

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		run.Attempts = attempt

		labels, err := r.tracker.Labels(ctx, issueID)
		if err != nil {
			return nil, fmt.Errorf("failed to read labels for %s: %w", issueID, err)
		}

		diff, fullLabels := reconcile.Reconcile(result, assessment, labels)
		run.Diff = diff
		intents := plan.Plan(result, assessment, diff, fullLabels)

		dres, err := r.dispatcher.Dispatch(ctx, runID, issueID, labels, intents)
		if errors.Is(err, tracker.ErrStaleLabels) {
			fmt.Printf("Label conflict on %s (attempt %d/%d), re-reading\n",
				issueID, attempt, r.cfg.MaxAttempts)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("dispatch failed for %s: %w", issueID, err)
		}

		run.State = dres.State
		run.Executed = dres.Executed
		run.Dropped = dres.Dropped
		run.EscalationIDs = dres.EscalationIDs
		r.storeEvent(ctx, events.NewRunCompleted(runID, issueID, r.cfg.Actor,
			string(run.State), len(run.Executed), len(run.Dropped)))
		return run, nil
	}

	// Conflict retries exhausted: end Blocked with nothing applied.
	run.State = dispatch.StateBlocked
	r.storeEvent(ctx, events.New(events.EventTypeRunBlocked, runID, issueID,
		r.cfg.Actor, events.SeverityWarning,
		fmt.Sprintf("label conflict retries exhausted after %d attempts", r.cfg.MaxAttempts), nil))
	r.storeEvent(ctx, events.NewRunCompleted(runID, issueID, r.cfg.Actor,
		string(run.State), 0, 0))
	return run, nil
}

func (r *Runner) storeEvent(ctx context.Context, event *events.TriageEvent) {
	if r.store == nil {
		return
	}
	if err := r.store.StoreEvent(ctx, event); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to store audit event %s: %v\n", event.Type, err)
	}
}
