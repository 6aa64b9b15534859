package types

import "fmt"

// IntentKind tags the variant of an ActionIntent.
type IntentKind string

const (
	// IntentComment posts one comment on the triggering issue
	IntentComment IntentKind = "comment"
	// IntentUpdateLabels replaces the issue's label list with the reconciled,
	// additive superset
	IntentUpdateLabels IntentKind = "update_labels"
	// IntentEscalate files a new tracking issue describing a missing capability
	IntentEscalate IntentKind = "escalate"
	// IntentNoop records that the run deliberately changed nothing
	IntentNoop IntentKind = "noop"
)

// ActionIntent is a planned side effect. The planner emits at most one
// intent of each kind per run; the dispatcher enforces the per-run quota
// before executing any of them.
type ActionIntent struct {
	Kind IntentKind `json:"kind"`

	// CommentBody is the rendered template string (IntentComment only)
	CommentBody string `json:"comment_body,omitempty"`

	// Labels is the full desired label list (IntentUpdateLabels only).
	// The original title is never changed by an update.
	Labels []string `json:"labels,omitempty"`

	// MissingCapability names the unavailable capability (IntentEscalate only)
	MissingCapability string `json:"missing_capability,omitempty"`

	// Reason is a human-readable justification (IntentNoop, and recorded on
	// drops for the other kinds)
	Reason string `json:"reason,omitempty"`
}

// Validate checks that the intent's payload matches its kind.
func (a *ActionIntent) Validate() error {
	switch a.Kind {
	case IntentComment:
		if a.CommentBody == "" {
			return fmt.Errorf("comment intent requires a body")
		}
	case IntentUpdateLabels:
		if len(a.Labels) == 0 {
			return fmt.Errorf("update_labels intent requires a label list")
		}
	case IntentEscalate:
		if a.MissingCapability == "" {
			return fmt.Errorf("escalate intent requires a missing capability")
		}
	case IntentNoop:
		if a.Reason == "" {
			return fmt.Errorf("noop intent requires a reason")
		}
	default:
		return fmt.Errorf("invalid intent kind: %s", a.Kind)
	}
	return nil
}

// NewCommentIntent creates a comment intent with the rendered body.
func NewCommentIntent(body string) ActionIntent {
	return ActionIntent{Kind: IntentComment, CommentBody: body}
}

// NewUpdateLabelsIntent creates a label-update intent carrying the full
// desired label list.
func NewUpdateLabelsIntent(labels []string) ActionIntent {
	return ActionIntent{Kind: IntentUpdateLabels, Labels: labels}
}

// NewEscalateIntent creates an escalation intent for a missing capability.
func NewEscalateIntent(capability, reason string) ActionIntent {
	return ActionIntent{Kind: IntentEscalate, MissingCapability: capability, Reason: reason}
}

// NewNoopIntent creates a no-op intent with a justification.
func NewNoopIntent(reason string) ActionIntent {
	return ActionIntent{Kind: IntentNoop, Reason: reason}
}
