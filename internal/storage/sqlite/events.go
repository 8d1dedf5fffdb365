package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/owizdom/mind-agent/internal/types"
)

// GetEvents returns the audit trail for an issue, newest first.
func (s *SQLiteStorage) GetEvents(ctx context.Context, repo string, number int, limit int) ([]*types.Event, error) {
	query := `
		SELECT id, repo, number, event_type, actor, detail, created_at
		FROM events
		WHERE repo = ? AND number = ?
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{repo, number}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*types.Event
	for rows.Next() {
		var e types.Event
		var detail sql.NullString
		err := rows.Scan(&e.ID, &e.Repo, &e.Number, &e.EventType, &e.Actor, &detail, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if detail.Valid {
			e.Detail = detail.String
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
