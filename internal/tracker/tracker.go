// Package tracker defines the narrow interface to the external issue
// tracker.
//
// The triage core never assumes a specific transport; everything it needs
// from the tracker is a snapshot read, a compare-and-swap label write, an
// append-only comment, an escalation-issue create and a capability probe.
// Retry/backoff for the tracker's own transport is the tracker's problem,
// not ours.
package tracker

import (
	"context"
	"errors"

	"github.com/sqlint/triagebot/internal/types"
)

// ErrStaleLabels is returned by ReplaceLabels when the caller's view of
// the label set no longer matches the tracker's. The caller re-reads and
// reconciles again, a bounded number of times.
var ErrStaleLabels = errors.New("label set changed since read")

// ErrNotFound is returned when the referenced issue does not exist.
var ErrNotFound = errors.New("issue not found")

// Capability names one granted permission in the invocation context.
type Capability string

const (
	// CapRead allows reading issue snapshots and labels
	CapRead Capability = "read"
	// CapComment allows appending comments (the add-comment safe output)
	CapComment Capability = "add-comment"
	// CapUpdateIssue allows replacing an issue's label list (the
	// update-issue safe output; the title is never changed)
	CapUpdateIssue Capability = "update-issue"
	// CapCreateIssue allows filing new issues (the missing-tool escalation)
	CapCreateIssue Capability = "create-issue"
)

// CapabilitySet is the set of capabilities granted for this invocation.
type CapabilitySet map[Capability]bool

// Has reports whether the capability is granted.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// EscalationRequest describes an unmet capability to be surfaced as a new
// tracked issue.
type EscalationRequest struct {
	// IssueID is the issue whose triage run hit the missing capability
	IssueID string
	// Capability is the missing grant
	Capability Capability
	// Summary describes what the run was trying to do
	Summary string
}

// Tracker is the external collaborator behind which the real issue
// tracker lives. Implementations must make ReplaceLabels reject writes
// based on a stale read with ErrStaleLabels; comment posting is
// append-only and needs no such check.
type Tracker interface {
	// Snapshot reads an immutable view of the issue
	Snapshot(ctx context.Context, id string) (*types.IssueSnapshot, error)

	// Labels reads the current label set, for read-modify-write cycles
	Labels(ctx context.Context, id string) ([]string, error)

	// ReplaceLabels writes the full desired label list iff the tracker's
	// current set still equals prev; otherwise returns ErrStaleLabels
	ReplaceLabels(ctx context.Context, id string, prev, next []string, actor string) error

	// AddComment appends a comment to the issue
	AddComment(ctx context.Context, id, actor, body string) error

	// CreateEscalation files a new tracking issue for a missing capability
	// and returns its id
	CreateEscalation(ctx context.Context, req EscalationRequest, actor string) (string, error)

	// Capabilities reports the grants available in this invocation context
	Capabilities(ctx context.Context) CapabilitySet
}
