package dispatch

import (
	"errors"
	"fmt"

	"github.com/sqlint/triagebot/internal/types"
)

// ErrQuotaExceeded is returned by a checked increment that would push a
// kind past its per-run ceiling.
var ErrQuotaExceeded = errors.New("dispatch quota exceeded")

// QuotaConfig holds the per-run output ceilings.
type QuotaConfig struct {
	// Comment is the add-comment ceiling per run
	// Default: 1
	Comment int
	// UpdateIssue is the update-issue ceiling per run
	// Default: 1
	UpdateIssue int
}

// DefaultQuotaConfig returns the default per-run ceilings.
func DefaultQuotaConfig() QuotaConfig {
	return QuotaConfig{Comment: 1, UpdateIssue: 1}
}

// Quota tracks per-run dispatch counters against fixed ceilings. It
// exists only for the duration of one run; the dispatcher creates a fresh
// one per Dispatch call. Escalations and noops have no ceiling.
type Quota struct {
	ceilings map[types.IntentKind]int
	counts   map[types.IntentKind]int
}

// NewQuota creates a fresh quota for one run.
func NewQuota(cfg QuotaConfig) *Quota {
	return &Quota{
		ceilings: map[types.IntentKind]int{
			types.IntentComment:      cfg.Comment,
			types.IntentUpdateLabels: cfg.UpdateIssue,
		},
		counts: make(map[types.IntentKind]int),
	}
}

// Allow performs a checked increment for the kind. Unlimited kinds always
// pass; limited kinds fail with ErrQuotaExceeded once the ceiling is
// reached, and the counter is not incremented on failure.
func (q *Quota) Allow(kind types.IntentKind) error {
	ceiling, limited := q.ceilings[kind]
	if !limited {
		q.counts[kind]++
		return nil
	}
	if q.counts[kind] >= ceiling {
		return fmt.Errorf("%s: %w (ceiling %d)", kind, ErrQuotaExceeded, ceiling)
	}
	q.counts[kind]++
	return nil
}

// Count returns how many intents of the kind were admitted this run.
func (q *Quota) Count(kind types.IntentKind) int {
	return q.counts[kind]
}
