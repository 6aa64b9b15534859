// Package memtracker is an in-memory Tracker used by tests and dry runs.
//
// It implements the same compare-and-swap label semantics as a real
// backend and can simulate stale writes and withheld capabilities.
package memtracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sqlint/triagebot/internal/tracker"
	"github.com/sqlint/triagebot/internal/types"
)

// Comment is one appended comment, kept for assertions.
type Comment struct {
	Actor string
	Body  string
}

// Escalation is one filed escalation issue.
type Escalation struct {
	ID      string
	Request tracker.EscalationRequest
	Actor   string
}

type issueState struct {
	snapshot types.IssueSnapshot
	labels   []string
	comments []Comment
}

// Tracker is an in-memory issue store.
type Tracker struct {
	mu          sync.Mutex
	issues      map[string]*issueState
	escalations []Escalation
	caps        tracker.CapabilitySet
	nextID      int

	// staleWrites makes the next N ReplaceLabels calls fail with
	// ErrStaleLabels, to exercise conflict retry paths.
	staleWrites int
}

// New creates an empty tracker with the given capability grants. A nil
// set grants everything.
func New(caps tracker.CapabilitySet) *Tracker {
	if caps == nil {
		caps = tracker.CapabilitySet{
			tracker.CapRead:        true,
			tracker.CapComment:     true,
			tracker.CapUpdateIssue: true,
			tracker.CapCreateIssue: true,
		}
	}
	return &Tracker{issues: make(map[string]*issueState), caps: caps}
}

// Put stores an issue. The snapshot's code blocks are derived from the
// body when absent.
func (t *Tracker) Put(snap types.IssueSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if snap.CodeBlocks == nil {
		snap.CodeBlocks = types.SplitCodeBlocks(snap.Body)
	}
	labels := append([]string(nil), snap.Labels...)
	t.issues[snap.ID] = &issueState{snapshot: snap, labels: labels}
}

// FailNextReplaceLabels makes the next n label writes return
// ErrStaleLabels before applying nothing.
func (t *Tracker) FailNextReplaceLabels(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staleWrites = n
}

// AddLabelOutOfBand simulates another actor changing labels between a
// run's read and write.
func (t *Tracker) AddLabelOutOfBand(id, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.issues[id]; ok {
		st.labels = append(st.labels, label)
		sort.Strings(st.labels)
	}
}

// Snapshot implements tracker.Tracker.
func (t *Tracker) Snapshot(_ context.Context, id string) (*types.IssueSnapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.issues[id]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", id, tracker.ErrNotFound)
	}
	snap := st.snapshot
	snap.Labels = append([]string(nil), st.labels...)
	return &snap, nil
}

// Labels implements tracker.Tracker.
func (t *Tracker) Labels(_ context.Context, id string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.issues[id]
	if !ok {
		return nil, fmt.Errorf("labels %s: %w", id, tracker.ErrNotFound)
	}
	return append([]string(nil), st.labels...), nil
}

// ReplaceLabels implements tracker.Tracker with CAS-on-prev semantics.
func (t *Tracker) ReplaceLabels(_ context.Context, id string, prev, next []string, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.issues[id]
	if !ok {
		return fmt.Errorf("replace labels %s: %w", id, tracker.ErrNotFound)
	}
	if t.staleWrites > 0 {
		t.staleWrites--
		return tracker.ErrStaleLabels
	}
	if !sameSet(st.labels, prev) {
		return tracker.ErrStaleLabels
	}
	st.labels = append([]string(nil), next...)
	sort.Strings(st.labels)
	return nil
}

// AddComment implements tracker.Tracker.
func (t *Tracker) AddComment(_ context.Context, id, actor, body string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.issues[id]
	if !ok {
		return fmt.Errorf("comment %s: %w", id, tracker.ErrNotFound)
	}
	st.comments = append(st.comments, Comment{Actor: actor, Body: body})
	return nil
}

// CreateEscalation implements tracker.Tracker.
func (t *Tracker) CreateEscalation(_ context.Context, req tracker.EscalationRequest, actor string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := fmt.Sprintf("esc-%d", t.nextID)
	t.escalations = append(t.escalations, Escalation{ID: id, Request: req, Actor: actor})
	t.issues[id] = &issueState{
		snapshot: types.IssueSnapshot{
			ID:        id,
			Title:     fmt.Sprintf("Missing capability: %s", req.Capability),
			Body:      req.Summary,
			Kind:      types.EventOpened,
			Timestamp: time.Now(),
		},
		labels: []string{types.LabelEscalation},
	}
	return id, nil
}

// Capabilities implements tracker.Tracker.
func (t *Tracker) Capabilities(_ context.Context) tracker.CapabilitySet {
	return t.caps
}

// Comments returns the comments appended to an issue.
func (t *Tracker) Comments(id string) []Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.issues[id]; ok {
		return append([]Comment(nil), st.comments...)
	}
	return nil
}

// Escalations returns every escalation filed so far.
func (t *Tracker) Escalations() []Escalation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Escalation(nil), t.escalations...)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Compile-time check that Tracker implements the interface
var _ tracker.Tracker = (*Tracker)(nil)
