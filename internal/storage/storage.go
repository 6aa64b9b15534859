// Package storage persists the triage audit trail.
//
// The issue tracker itself is an external collaborator; the only state
// this engine owns is the record of what each run did, kept in a local
// SQLite database so blocked runs and dropped intents are reviewable
// after the fact.
package storage

import (
	"context"

	"github.com/sqlint/triagebot/internal/events"
)

// Store is the audit-trail interface the rest of the engine writes to.
type Store interface {
	// StoreEvent persists one audit event
	StoreEvent(ctx context.Context, event *events.TriageEvent) error
	// GetEvents returns events matching the filter, newest first
	GetEvents(ctx context.Context, filter events.EventFilter) ([]*events.TriageEvent, error)
	// GetEventsByIssue returns all events for one issue, newest first
	GetEventsByIssue(ctx context.Context, issueID string) ([]*events.TriageEvent, error)
	// GetRecentEvents returns the most recent events across all issues
	GetRecentEvents(ctx context.Context, limit int) ([]*events.TriageEvent, error)
	// CleanupByAge deletes events older than retentionDays, in batches
	CleanupByAge(ctx context.Context, retentionDays, batchSize int) (int, error)
	// CleanupByIssueLimit keeps at most perIssueLimit events per issue
	CleanupByIssueLimit(ctx context.Context, perIssueLimit, batchSize int) (int, error)
	// Lifecycle
	Close() error
}

// Config holds audit database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".triagebot/audit.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
	// RetentionDays is how long events are kept before cleanup
	// Default: 90
	RetentionDays int
	// PerIssueLimit caps stored events per issue
	// Default: 200
	PerIssueLimit int
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path:          ".triagebot/audit.db",
		RetentionDays: 90,
		PerIssueLimit: 200,
	}
}
