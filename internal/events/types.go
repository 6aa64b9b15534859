// Package events defines the structured audit events a triage run emits.
//
// Every externally visible outcome — a label update, a comment, a dropped
// intent, an escalation, a blocked or no-op run — produces an event, so a
// run can never end in a silent drop with no trace.
package events

import "time"

// EventType represents the type of event that occurred during a triage run.
type EventType string

const (
	// EventTypeRunStarted indicates a triage run began for a trigger event
	EventTypeRunStarted EventType = "run_started"
	// EventTypeClassified indicates classification and assessment completed
	EventTypeClassified EventType = "issue_classified"
	// EventTypeLabelsUpdated indicates a label update was applied
	EventTypeLabelsUpdated EventType = "labels_updated"
	// EventTypeCommentPosted indicates a needs-info comment was posted
	EventTypeCommentPosted EventType = "comment_posted"
	// EventTypeIntentDropped indicates a planned intent was dropped
	// (quota exceeded) with a recorded reason
	EventTypeIntentDropped EventType = "intent_dropped"
	// EventTypeEscalationRaised indicates a missing-capability escalation
	// issue was filed
	EventTypeEscalationRaised EventType = "escalation_raised"
	// EventTypeRunBlocked indicates the run ended Blocked (conflict retries
	// exhausted or quota violation)
	EventTypeRunBlocked EventType = "run_blocked"
	// EventTypeRunNoop indicates the run deliberately changed nothing
	EventTypeRunNoop EventType = "run_noop"
	// EventTypeRunCompleted indicates the run reached a terminal state
	EventTypeRunCompleted EventType = "run_completed"
	// EventTypeCleanupCompleted indicates an audit retention cleanup cycle
	EventTypeCleanupCompleted EventType = "cleanup_completed"
)

// EventSeverity represents the severity level of an event.
type EventSeverity string

const (
	// SeverityInfo indicates informational events
	SeverityInfo EventSeverity = "info"
	// SeverityWarning indicates potentially problematic events
	SeverityWarning EventSeverity = "warning"
	// SeverityError indicates error events
	SeverityError EventSeverity = "error"
)

// TriageEvent is one audit record. Events are stored per run and per
// issue for later review.
type TriageEvent struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Type is the type of event
	Type EventType `json:"type"`
	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`
	// RunID identifies the triage run that produced this event
	RunID string `json:"run_id"`
	// IssueID is the issue being triaged
	IssueID string `json:"issue_id"`
	// Actor is who performed the run (e.g. "triagebot")
	Actor string `json:"actor"`
	// Severity is the severity level of this event
	Severity EventSeverity `json:"severity"`
	// Message is a human-readable description of the event
	Message string `json:"message"`
	// Data contains structured, type-specific data (must be JSON-serializable)
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventFilter selects events when querying the audit store.
type EventFilter struct {
	// IssueID filters to one issue ("" = all)
	IssueID string
	// RunID filters to one run ("" = all)
	RunID string
	// Types filters to the given event types (empty = all)
	Types []EventType
	// Limit caps the number of returned events (0 = no cap)
	Limit int
}
