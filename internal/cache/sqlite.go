package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLite is a Cache backed by the grade_cache table. It shares the
// database handle owned by the store so a single file holds all state.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite wraps db as a Cache. The grade_cache table must already
// exist; the store's migration creates it.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

// Get returns the cached value for key if present and not expired.
// Expired rows are deleted on read.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM grade_cache WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	if s.now().After(expiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM grade_cache WHERE key = ?`, key)
		return nil, false, nil
	}
	return []byte(value), true, nil
}

// Set stores value under key for ttl, replacing any previous entry.
func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO grade_cache (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, string(value), s.now().Add(ttl).UTC(),
	)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Purge deletes all expired rows. Callers may run it periodically; the
// cache stays correct without it because Get checks expiry.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grade_cache WHERE expires_at < ?`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}
