// Package dispatch executes planned intents against the tracker.
//
// The dispatcher is the only component with side effects. It runs a
// small state machine per run (Dispatching -> Done/Blocked/Escalated),
// enforces the per-run output quota with checked increments, gates every
// write on the granted capability set, and records an audit event for
// every outcome so nothing is dropped silently.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sqlint/triagebot/internal/events"
	"github.com/sqlint/triagebot/internal/storage"
	"github.com/sqlint/triagebot/internal/tracker"
	"github.com/sqlint/triagebot/internal/types"
)

// State is the dispatcher's position in the run lifecycle.
type State string

const (
	// StateIdle is the initial state before any intents arrive
	StateIdle State = "idle"
	// StateComputing covers the pure pipeline stages upstream of dispatch
	StateComputing State = "computing"
	// StateDispatching means intents are being executed against the tracker
	StateDispatching State = "dispatching"
	// StateDone is the terminal success state
	StateDone State = "done"
	// StateBlocked is the terminal state after a quota violation or after
	// label-conflict retries are exhausted
	StateBlocked State = "blocked"
	// StateEscalated is the terminal state when a missing capability was
	// surfaced as a new tracking issue
	StateEscalated State = "escalated"
)

// ErrCapabilityMissing marks intents refused because the invocation
// context lacks the required grant.
var ErrCapabilityMissing = errors.New("capability not granted")

// validTransitions defines the legal state machine edges.
var validTransitions = map[State][]State{
	StateIdle:      {StateComputing},
	StateComputing: {StateDispatching, StateDone, StateBlocked},
	StateDispatching: {
		StateDone,
		StateBlocked,
		StateEscalated,
	},
	// Terminal states have no outgoing edges
	StateDone:      {},
	StateBlocked:   {},
	StateEscalated: {},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state ends the run.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateBlocked || s == StateEscalated
}

// DroppedIntent records an intent the dispatcher refused to execute,
// together with the reason. Drops are never silent.
type DroppedIntent struct {
	Intent types.ActionIntent `json:"intent"`
	Reason string             `json:"reason"`
}

// Result summarizes one dispatch pass.
type Result struct {
	// State is the terminal state the run reached
	State State `json:"state"`
	// Executed lists the intents that were applied, in execution order
	Executed []types.ActionIntent `json:"executed,omitempty"`
	// Dropped lists the intents refused by quota or capability gating
	Dropped []DroppedIntent `json:"dropped,omitempty"`
	// EscalationIDs are the ids of escalation issues filed this run
	EscalationIDs []string `json:"escalation_ids,omitempty"`
}

// Dispatcher executes intents against a tracker under quota and
// capability constraints.
type Dispatcher struct {
	tracker tracker.Tracker
	store   storage.Store
	quota   QuotaConfig
	actor   string
}

// New creates a dispatcher. store may be nil to disable the audit trail
// (dry runs).
func New(tr tracker.Tracker, store storage.Store, quota QuotaConfig, actor string) *Dispatcher {
	return &Dispatcher{
		tracker: tr,
		store:   store,
		quota:   quota,
		actor:   actor,
	}
}

// requiredCapability maps each executable intent kind to the grant it
// needs. Noop needs nothing.
func requiredCapability(kind types.IntentKind) (tracker.Capability, bool) {
	switch kind {
	case types.IntentComment:
		return tracker.CapComment, true
	case types.IntentUpdateLabels:
		return tracker.CapUpdateIssue, true
	case types.IntentEscalate:
		return tracker.CapCreateIssue, true
	default:
		return "", false
	}
}

// Dispatch executes the planned intents for one run. prevLabels is the
// label set the reconciler read; label writes are compare-and-swap
// against it, and ErrStaleLabels is returned to the caller (who re-reads
// and retries the whole cycle) rather than handled here.
//
// On success the returned result carries the terminal state: Done when
// everything applied, Blocked when quota gating dropped an intent, and
// Escalated when a missing capability was surfaced as a new issue.
func (d *Dispatcher) Dispatch(ctx context.Context, runID, issueID string, prevLabels []string, intents []types.ActionIntent) (*Result, error) {
	result := &Result{State: StateDispatching}
	quota := NewQuota(d.quota)
	caps := d.tracker.Capabilities(ctx)

	// One escalation per missing capability per run
	escalated := make(map[tracker.Capability]bool)
	quotaViolated := false

	for _, intent := range intents {
		if err := intent.Validate(); err != nil {
			return result, fmt.Errorf("invalid intent: %w", err)
		}

		if intent.Kind == types.IntentNoop {
			result.Executed = append(result.Executed, intent)
			d.storeEvent(ctx, events.New(events.EventTypeRunNoop, runID, issueID,
				d.actor, events.SeverityInfo, intent.Reason, nil))
			continue
		}

		if err := quota.Allow(intent.Kind); err != nil {
			quotaViolated = true
			d.drop(ctx, result, runID, issueID, intent, err.Error())
			continue
		}

		needed, ok := requiredCapability(intent.Kind)
		if !ok {
			return result, fmt.Errorf("no capability mapping for intent kind %s", intent.Kind)
		}
		if !caps.Has(needed) {
			if err := d.escalate(ctx, result, quota, caps, escalated, runID, issueID, needed, intent); err != nil {
				return result, err
			}
			continue
		}

		if err := d.execute(ctx, result, runID, issueID, prevLabels, intent); err != nil {
			return result, err
		}
	}

	result.State = terminalState(result, quotaViolated)
	if result.State == StateBlocked {
		d.storeEvent(ctx, events.New(events.EventTypeRunBlocked, runID, issueID,
			d.actor, events.SeverityWarning,
			"run blocked: quota gating dropped a planned intent", nil))
	}
	return result, nil
}

// execute applies one permitted, quota-admitted intent.
func (d *Dispatcher) execute(ctx context.Context, result *Result, runID, issueID string, prevLabels []string, intent types.ActionIntent) error {
	switch intent.Kind {
	case types.IntentUpdateLabels:
		err := d.tracker.ReplaceLabels(ctx, issueID, prevLabels, intent.Labels, d.actor)
		if errors.Is(err, tracker.ErrStaleLabels) {
			// The caller re-reads and reconciles again; nothing was written.
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to update labels: %w", err)
		}
		result.Executed = append(result.Executed, intent)
		d.storeEvent(ctx, events.New(events.EventTypeLabelsUpdated, runID, issueID,
			d.actor, events.SeverityInfo, "labels updated", map[string]interface{}{
				"labels": intent.Labels,
			}))

	case types.IntentComment:
		if err := d.tracker.AddComment(ctx, issueID, d.actor, intent.CommentBody); err != nil {
			return fmt.Errorf("failed to post comment: %w", err)
		}
		result.Executed = append(result.Executed, intent)
		d.storeEvent(ctx, events.New(events.EventTypeCommentPosted, runID, issueID,
			d.actor, events.SeverityInfo, "needs-info comment posted", nil))

	case types.IntentEscalate:
		escalationID, err := d.tracker.CreateEscalation(ctx, tracker.EscalationRequest{
			IssueID:    issueID,
			Capability: tracker.Capability(intent.MissingCapability),
			Summary:    intent.Reason,
		}, d.actor)
		if err != nil {
			return fmt.Errorf("failed to file escalation: %w", err)
		}
		result.Executed = append(result.Executed, intent)
		result.EscalationIDs = append(result.EscalationIDs, escalationID)
		d.storeEvent(ctx, events.NewEscalationRaised(runID, issueID, d.actor,
			intent.MissingCapability, escalationID))

	default:
		return fmt.Errorf("unexpected intent kind %s", intent.Kind)
	}
	return nil
}

// escalate handles an intent whose capability is not granted: the intent
// is dropped with a recorded reason, and a new escalation issue is filed
// describing the missing grant (once per capability per run). If even
// create-issue is missing, the run can only record the drop and block.
func (d *Dispatcher) escalate(ctx context.Context, result *Result, quota *Quota, caps tracker.CapabilitySet, seen map[tracker.Capability]bool, runID, issueID string, needed tracker.Capability, intent types.ActionIntent) error {
	d.drop(ctx, result, runID, issueID, intent,
		fmt.Sprintf("%s: %v", needed, ErrCapabilityMissing))

	if seen[needed] {
		return nil
	}
	seen[needed] = true

	if !caps.Has(tracker.CapCreateIssue) {
		// Cannot file an escalation either; the drop above is the only trace.
		return nil
	}

	esc := types.NewEscalateIntent(string(needed),
		fmt.Sprintf("triage of %s needs the %s capability to apply %s intents", issueID, needed, intent.Kind))
	if err := quota.Allow(esc.Kind); err != nil {
		return fmt.Errorf("failed to admit escalation intent: %w", err)
	}
	return d.execute(ctx, result, runID, issueID, nil, esc)
}

// drop records a refused intent and its audit event.
func (d *Dispatcher) drop(ctx context.Context, result *Result, runID, issueID string, intent types.ActionIntent, reason string) {
	result.Dropped = append(result.Dropped, DroppedIntent{Intent: intent, Reason: reason})
	d.storeEvent(ctx, events.NewIntentDropped(runID, issueID, d.actor,
		string(intent.Kind), reason))
}

// terminalState picks the final state. A quota drop blocks the run even
// when other intents applied; otherwise a filed escalation wins over
// plain completion. Capability drops that produced an escalation are
// covered by Escalated, not Blocked.
func terminalState(result *Result, quotaViolated bool) State {
	if quotaViolated {
		return StateBlocked
	}
	if len(result.EscalationIDs) > 0 {
		return StateEscalated
	}
	if len(result.Dropped) > 0 {
		// Capability missing and no create-issue grant to escalate with
		return StateBlocked
	}
	return StateDone
}

// storeEvent persists an audit event. Audit failures are logged but do
// not abort the dispatch; the tracker write already happened.
func (d *Dispatcher) storeEvent(ctx context.Context, event *events.TriageEvent) {
	if d.store == nil {
		return
	}
	if err := d.store.StoreEvent(ctx, event); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to store audit event %s: %v\n", event.Type, err)
	}
}
