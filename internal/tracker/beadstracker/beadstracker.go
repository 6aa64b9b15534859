// Package beadstracker backs the Tracker interface with a Beads issue
// database.
//
// Beads provides the core tracker (issues, labels, comments); this
// package only maps the triage engine's narrow collaborator interface
// onto it. Mutating calls are paced by a rate limiter so a burst of
// trigger events cannot hammer the tracker.
package beadstracker

import (
	"context"
	"fmt"
	"sort"
	"time"

	beadsLib "github.com/steveyegge/beads"
	"golang.org/x/time/rate"

	"github.com/sqlint/triagebot/internal/tracker"
	"github.com/sqlint/triagebot/internal/types"
)

// issuePrefix is set as the Beads issue_prefix config on first open, so
// generated ids look like "sq-42".
const issuePrefix = "sq"

// mutationsPerSecond paces label writes, comments and escalation creates.
const mutationsPerSecond = 5

// Tracker implements tracker.Tracker on a Beads storage backend.
type Tracker struct {
	store   beadsLib.Storage
	caps    tracker.CapabilitySet
	limiter *rate.Limiter
}

// Open opens (or creates) the Beads database at dbPath. Capability grants
// come from the invocation context's configuration, not from Beads: a
// local database can do everything, but the engine must still honor what
// the operator granted.
func Open(ctx context.Context, dbPath string, caps tracker.CapabilitySet) (*Tracker, error) {
	store, err := beadsLib.NewSQLiteStorage(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open beads storage: %w", err)
	}

	// Beads requires issue_prefix before it can generate ids.
	if prefix, err := store.GetConfig(ctx, "issue_prefix"); err != nil || prefix == "" {
		if err := store.SetConfig(ctx, "issue_prefix", issuePrefix); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to set issue_prefix config: %w", err)
		}
	}

	return &Tracker{
		store:   store,
		caps:    caps,
		limiter: rate.NewLimiter(rate.Limit(mutationsPerSecond), 1),
	}, nil
}

// Close releases the underlying database.
func (t *Tracker) Close() error {
	return t.store.Close()
}

// Snapshot implements tracker.Tracker.
func (t *Tracker) Snapshot(ctx context.Context, id string) (*types.IssueSnapshot, error) {
	issue, err := t.store.GetIssue(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %s: %w", id, err)
	}
	if issue == nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, tracker.ErrNotFound)
	}
	labels, err := t.store.GetLabels(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get labels for %s: %w", id, err)
	}

	kind := types.EventOpened
	if issue.UpdatedAt.After(issue.CreatedAt) {
		kind = types.EventEdited
	}

	return &types.IssueSnapshot{
		ID:         issue.ID,
		Title:      issue.Title,
		Body:       issue.Description,
		CodeBlocks: types.SplitCodeBlocks(issue.Description),
		Labels:     labels,
		Kind:       kind,
		Timestamp:  issue.UpdatedAt,
	}, nil
}

// Labels implements tracker.Tracker.
func (t *Tracker) Labels(ctx context.Context, id string) ([]string, error) {
	labels, err := t.store.GetLabels(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get labels for %s: %w", id, err)
	}
	return labels, nil
}

// ReplaceLabels implements tracker.Tracker. Beads has no transactional
// replace, so the stale check is advisory: re-read, compare against prev,
// then apply the additions. Reconciliation is additive-only, so applying
// adds individually cannot lose anyone else's labels.
func (t *Tracker) ReplaceLabels(ctx context.Context, id string, prev, next []string, actor string) error {
	current, err := t.store.GetLabels(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to re-read labels for %s: %w", id, err)
	}
	if !sameSet(current, prev) {
		return tracker.ErrStaleLabels
	}

	have := make(map[string]bool, len(current))
	for _, l := range current {
		have[l] = true
	}
	for _, l := range next {
		if have[l] {
			continue
		}
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := t.store.AddLabel(ctx, id, l, actor); err != nil {
			return fmt.Errorf("failed to add label %s: %w", l, err)
		}
	}
	return nil
}

// AddComment implements tracker.Tracker.
func (t *Tracker) AddComment(ctx context.Context, id, actor, body string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := t.store.AddComment(ctx, id, actor, body); err != nil {
		return fmt.Errorf("failed to add comment to %s: %w", id, err)
	}
	return nil
}

// CreateEscalation implements tracker.Tracker.
func (t *Tracker) CreateEscalation(ctx context.Context, req tracker.EscalationRequest, actor string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}

	now := time.Now()
	issue := &beadsLib.Issue{
		Title: fmt.Sprintf("Missing capability: %s", req.Capability),
		Description: fmt.Sprintf(
			"Triage of %s could not complete: the %q capability is not granted in this invocation context.\n\n%s",
			req.IssueID, req.Capability, req.Summary),
		Status:    beadsLib.Status("open"),
		Priority:  1,
		IssueType: beadsLib.IssueType("chore"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.store.CreateIssue(ctx, issue, actor); err != nil {
		return "", fmt.Errorf("failed to create escalation issue: %w", err)
	}
	if err := t.store.AddLabel(ctx, issue.ID, types.LabelEscalation, actor); err != nil {
		return "", fmt.Errorf("failed to label escalation issue: %w", err)
	}
	return issue.ID, nil
}

// Capabilities implements tracker.Tracker.
func (t *Tracker) Capabilities(_ context.Context) tracker.CapabilitySet {
	return t.caps
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
