package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// HasSeen reports whether a canonical link is already in the dedup ledger.
func (s *Store) HasSeen(ctx context.Context, link string) (bool, error) {
	var one int
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE link = ?`, truncate(link, maxLinkLen))
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query article: %w", err)
	}
	return true, nil
}

// RecordSeen records a link in the dedup ledger. Recording the same link
// twice leaves exactly one row; the unique constraint absorbs races between
// concurrent recorders.
func (s *Store) RecordSeen(ctx context.Context, link, title string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO articles (link, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		truncate(link, maxLinkLen),
		nullableString(truncate(title, maxTitleLen)),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("record article: %w", err)
	}
	return nil
}

// ArticleCount returns the number of ledger rows.
func (s *Store) ArticleCount(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM articles`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}
