package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/sqlint/triagebot/internal/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS triage_events (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	timestamp  TIMESTAMP NOT NULL,
	run_id     TEXT NOT NULL,
	issue_id   TEXT NOT NULL,
	actor      TEXT NOT NULL DEFAULT '',
	severity   TEXT NOT NULL,
	message    TEXT NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_triage_events_issue ON triage_events(issue_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_triage_events_run ON triage_events(run_id);
CREATE INDEX IF NOT EXISTS idx_triage_events_time ON triage_events(timestamp);
`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the audit database at path. ":memory:" creates
// an in-memory database for tests.
func New(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// StoreEvent persists one audit event.
func (s *SQLiteStore) StoreEvent(ctx context.Context, event *events.TriageEvent) error {
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO triage_events (id, type, timestamp, run_id, issue_id, actor, severity, message, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.Type,
		event.Timestamp,
		event.RunID,
		event.IssueID,
		event.Actor,
		event.Severity,
		event.Message,
		string(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

// GetEvents returns events matching the filter, newest first.
func (s *SQLiteStore) GetEvents(ctx context.Context, filter events.EventFilter) ([]*events.TriageEvent, error) {
	query := `SELECT id, type, timestamp, run_id, issue_id, actor, severity, message, data FROM triage_events`
	var conds []string
	var args []interface{}

	if filter.IssueID != "" {
		conds = append(conds, "issue_id = ?")
		args = append(args, filter.IssueID)
	}
	if filter.RunID != "" {
		conds = append(conds, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conds = append(conds, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetEventsByIssue returns all events for one issue, newest first.
func (s *SQLiteStore) GetEventsByIssue(ctx context.Context, issueID string) ([]*events.TriageEvent, error) {
	return s.GetEvents(ctx, events.EventFilter{IssueID: issueID})
}

// GetRecentEvents returns the most recent events across all issues.
func (s *SQLiteStore) GetRecentEvents(ctx context.Context, limit int) ([]*events.TriageEvent, error) {
	return s.GetEvents(ctx, events.EventFilter{Limit: limit})
}

// CleanupByAge deletes events older than retentionDays, batchSize rows at
// a time so a large backlog doesn't hold the write lock.
func (s *SQLiteStore) CleanupByAge(ctx context.Context, retentionDays, batchSize int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	total := 0
	for {
		result, err := s.db.ExecContext(ctx, `
			DELETE FROM triage_events WHERE id IN (
				SELECT id FROM triage_events WHERE timestamp < ? LIMIT ?
			)
		`, cutoff, batchSize)
		if err != nil {
			return total, fmt.Errorf("failed to delete old events: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to check rows affected: %w", err)
		}
		total += int(n)
		if int(n) < batchSize {
			return total, nil
		}
	}
}

// CleanupByIssueLimit keeps at most perIssueLimit events per issue,
// dropping the oldest first.
func (s *SQLiteStore) CleanupByIssueLimit(ctx context.Context, perIssueLimit, batchSize int) (int, error) {
	total := 0
	for {
		result, err := s.db.ExecContext(ctx, `
			DELETE FROM triage_events WHERE id IN (
				SELECT id FROM (
					SELECT id, ROW_NUMBER() OVER (
						PARTITION BY issue_id ORDER BY timestamp DESC
					) AS rn
					FROM triage_events
				) WHERE rn > ? LIMIT ?
			)
		`, perIssueLimit, batchSize)
		if err != nil {
			return total, fmt.Errorf("failed to enforce per-issue limit: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to check rows affected: %w", err)
		}
		total += int(n)
		if int(n) < batchSize {
			return total, nil
		}
	}
}

func scanEvents(rows *sql.Rows) ([]*events.TriageEvent, error) {
	var result []*events.TriageEvent
	for rows.Next() {
		var e events.TriageEvent
		var dataJSON string
		if err := rows.Scan(
			&e.ID, &e.Type, &e.Timestamp, &e.RunID, &e.IssueID,
			&e.Actor, &e.Severity, &e.Message, &dataJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if dataJSON != "" && dataJSON != "{}" {
			if err := json.Unmarshal([]byte(dataJSON), &e.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

// Compile-time check that SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
