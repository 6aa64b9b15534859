package events

import (
	"time"

	"github.com/google/uuid"
)

// New creates a TriageEvent with a generated id and the current time.
func New(eventType EventType, runID, issueID, actor string, severity EventSeverity, message string, data map[string]interface{}) *TriageEvent {
	return &TriageEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		RunID:     runID,
		IssueID:   issueID,
		Actor:     actor,
		Severity:  severity,
		Message:   message,
		Data:      data,
	}
}

// NewRunStarted creates the run_started event.
func NewRunStarted(runID, issueID, actor string, eventKind string) *TriageEvent {
	return New(EventTypeRunStarted, runID, issueID, actor, SeverityInfo,
		"triage run started", map[string]interface{}{
			"trigger": eventKind,
		})
}

// NewClassified creates the issue_classified event with the resolved axes.
func NewClassified(runID, issueID, actor string, issueType, dialect, component, completeness string) *TriageEvent {
	return New(EventTypeClassified, runID, issueID, actor, SeverityInfo,
		"issue classified", map[string]interface{}{
			"type":         issueType,
			"dialect":      dialect,
			"component":    component,
			"completeness": completeness,
		})
}

// NewIntentDropped creates the intent_dropped event. Dropping is always a
// warning: the planner should not produce more intents than the quota
// allows.
func NewIntentDropped(runID, issueID, actor string, intentKind, reason string) *TriageEvent {
	return New(EventTypeIntentDropped, runID, issueID, actor, SeverityWarning,
		"planned intent dropped: "+reason, map[string]interface{}{
			"intent": intentKind,
			"reason": reason,
		})
}

// NewEscalationRaised creates the escalation_raised event.
func NewEscalationRaised(runID, issueID, actor string, capability, escalationID string) *TriageEvent {
	return New(EventTypeEscalationRaised, runID, issueID, actor, SeverityWarning,
		"escalation issue filed for missing capability "+capability, map[string]interface{}{
			"capability":    capability,
			"escalation_id": escalationID,
		})
}

// NewRunCompleted creates the run_completed event with the terminal state.
func NewRunCompleted(runID, issueID, actor string, state string, executed, dropped int) *TriageEvent {
	severity := SeverityInfo
	if state != "done" {
		severity = SeverityWarning
	}
	return New(EventTypeRunCompleted, runID, issueID, actor, severity,
		"triage run finished in state "+state, map[string]interface{}{
			"state":    state,
			"executed": executed,
			"dropped":  dropped,
		})
}
