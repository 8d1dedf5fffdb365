// Package sqlite implements the sighting store on SQLite.
package sqlite

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

	"github.com/owizdom/mind-agent/internal/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	dsn := path
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		// WAL mode for better concurrency between the poller and CLI reads
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite3", dsn)
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

	return &SQLiteStorage{db: db}, nil
}

// UpsertIssue records a sighting. Last write wins for the forge-sourced
// fields; lifecycle fields (state, branch, brief_path, ready_at) and the
// first-seen timestamp are preserved on existing rows.
func (s *SQLiteStorage) UpsertIssue(ctx context.Context, issue *types.Issue) error {
	if err := issue.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	labels, err := json.Marshal(issue.Labels)
	if err != nil {
		return fmt.Errorf("failed to encode labels: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Detect first sighting so we can record the audit event
	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM issues WHERE repo = ? AND number = ?`,
		issue.Repo, issue.Number).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing sighting: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO issues (repo, number, forge_id, title, body, url, labels, state, seen_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (repo, number) DO UPDATE SET
			forge_id = excluded.forge_id,
			title = excluded.title,
			body = excluded.body,
			url = excluded.url,
			labels = excluded.labels,
			updated_at = excluded.updated_at
	`, issue.Repo, issue.Number, issue.ID, issue.Title, issue.Body, issue.URL,
		string(labels), types.StateNew, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert issue: %w", err)
	}

	if exists == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (repo, number, event_type, actor, detail)
			VALUES (?, ?, ?, ?, ?)
		`, issue.Repo, issue.Number, types.EventSighted, "poller", issue.Title)
		if err != nil {
			return fmt.Errorf("failed to record event: %w", err)
		}
	}

	return tx.Commit()
}

// GetIssue retrieves a sighting by (repo, number). Returns nil if not found.
func (s *SQLiteStorage) GetIssue(ctx context.Context, repo string, number int) (*types.Issue, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT repo, number, forge_id, title, body, url, labels, state,
		       branch, brief_path, seen_at, updated_at, ready_at
		FROM issues
		WHERE repo = ? AND number = ?
	`, repo, number)

	issue, err := scanIssue(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return issue, nil
}

// ListIssues returns sightings matching the filter, newest sightings first.
func (s *SQLiteStorage) ListIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.Repo != "" {
		whereClauses = append(whereClauses, "repo = ?")
		args = append(args, filter.Repo)
	}
	if filter.State != nil {
		whereClauses = append(whereClauses, "state = ?")
		args = append(args, *filter.State)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	limitSQL := ""
	if filter.Limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT repo, number, forge_id, title, body, url, labels, state,
		       branch, brief_path, seen_at, updated_at, ready_at
		FROM issues
		%s
		ORDER BY seen_at DESC, repo, number
		%s
	`, whereSQL, limitSQL), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []*types.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// TransitionIssue moves a sighting to a new lifecycle state, enforcing the
// state machine, and records the transition in the audit trail.
func (s *SQLiteStorage) TransitionIssue(ctx context.Context, repo string, number int, to types.State, actor, detail string) error {
	issue, err := s.GetIssue(ctx, repo, number)
	if err != nil {
		return err
	}
	if issue == nil {
		return fmt.Errorf("issue %s#%d not found", repo, number)
	}

	if !issue.State.CanTransitionTo(to) {
		return fmt.Errorf("invalid transition %s → %s for %s", issue.State, to, issue.Key())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE issues SET state = ?, updated_at = ? WHERE repo = ? AND number = ?
	`, to, time.Now(), repo, number)
	if err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}

	eventType := types.EventStateChanged
	if to == types.StateSkipped {
		eventType = types.EventSkipped
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (repo, number, event_type, actor, detail)
		VALUES (?, ?, ?, ?, ?)
	`, repo, number, eventType, actor, fmt.Sprintf("%s → %s: %s", issue.State, to, detail))
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return tx.Commit()
}

// MarkReady transitions a new sighting to ready, recording the prepared work
// branch and the brief artifact path.
func (s *SQLiteStorage) MarkReady(ctx context.Context, repo string, number int, branch, briefPath, actor string) error {
	issue, err := s.GetIssue(ctx, repo, number)
	if err != nil {
		return err
	}
	if issue == nil {
		return fmt.Errorf("issue %s#%d not found", repo, number)
	}
	if !issue.State.CanTransitionTo(types.StateReady) {
		return fmt.Errorf("invalid transition %s → %s for %s", issue.State, types.StateReady, issue.Key())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE issues SET state = ?, branch = ?, brief_path = ?, ready_at = ?, updated_at = ?
		WHERE repo = ? AND number = ?
	`, types.StateReady, branch, briefPath, now, now, repo, number)
	if err != nil {
		return fmt.Errorf("failed to mark ready: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (repo, number, event_type, actor, detail)
		VALUES (?, ?, ?, ?, ?)
	`, repo, number, types.EventBriefWritten, actor, briefPath)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return tx.Commit()
}

// GetStatistics returns aggregate sighting counts
func (s *SQLiteStorage) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	stats := &types.Statistics{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN state = 'new' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN state = 'ready' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN state = 'skipped' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN state = 'pushed' THEN 1 ELSE 0 END), 0)
		FROM issues
	`).Scan(&stats.TotalIssues, &stats.NewIssues, &stats.ReadyIssues,
		&stats.SkippedIssues, &stats.PushedIssues)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return stats, nil
}

// GetConfig gets a configuration value from the config table
func (s *SQLiteStorage) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig sets a configuration value in the config table
func (s *SQLiteStorage) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// scanner abstracts sql.Row and sql.Rows for scanIssue
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanIssue(row scanner) (*types.Issue, error) {
	var issue types.Issue
	var labels string
	var readyAt sql.NullTime

	err := row.Scan(
		&issue.Repo, &issue.Number, &issue.ID, &issue.Title, &issue.Body,
		&issue.URL, &labels, &issue.State, &issue.Branch, &issue.BriefPath,
		&issue.SeenAt, &issue.UpdatedAt, &readyAt,
	)
	if err != nil {
		return nil, err
	}

	if labels != "" && labels != "null" {
		if err := json.Unmarshal([]byte(labels), &issue.Labels); err != nil {
			return nil, fmt.Errorf("failed to decode labels: %w", err)
		}
	}
	if readyAt.Valid {
		issue.ReadyAt = &readyAt.Time
	}

	return &issue, nil
}
