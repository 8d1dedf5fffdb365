package sqlite

import (
	"context"
	"fmt"

	"github.com/owizdom/mind-agent/internal/types"
)

// ReplaceComments replaces the stored comment thread for an issue. The forge
// returns the full thread on every sighting, so the local copy is swapped
// wholesale rather than diffed.
func (s *SQLiteStorage) ReplaceComments(ctx context.Context, repo string, number int, comments []types.Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM comments WHERE repo = ? AND number = ?`, repo, number); err != nil {
		return fmt.Errorf("failed to clear comments: %w", err)
	}

	for _, c := range comments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO comments (repo, number, comment_id, author, body, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, repo, number, c.ID, c.Author, c.Body, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
	}

	return tx.Commit()
}

// GetComments returns the stored comment thread oldest-first.
func (s *SQLiteStorage) GetComments(ctx context.Context, repo string, number int) ([]types.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT comment_id, author, body, created_at
		FROM comments
		WHERE repo = ? AND number = ?
		ORDER BY created_at ASC, comment_id ASC
	`, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer rows.Close()

	var comments []types.Comment
	for rows.Next() {
		var c types.Comment
		if err := rows.Scan(&c.ID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
