package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"datfeed/gateway/internal/database"
	"datfeed/gateway/internal/models"
)

// SQLiteStore keeps origins in the origin_cache table.
type SQLiteStore struct {
	db *database.DB
}

func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, url string) (models.CachedOrigin, error) {
	var o models.CachedOrigin
	err := s.db.GetContext(ctx, &o,
		`SELECT url, content, last_modified, last_access FROM origin_cache WHERE url = ?`, url)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CachedOrigin{}, ErrNotFound
	}
	if err != nil {
		return models.CachedOrigin{}, fmt.Errorf("sqlite get %s: %w", url, err)
	}
	o.LastModified = o.LastModified.UTC()
	o.LastAccess = o.LastAccess.UTC()
	return o, nil
}

func (s *SQLiteStore) Put(ctx context.Context, o models.CachedOrigin) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO origin_cache (url, content, last_modified, last_access)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			content = excluded.content,
			last_modified = excluded.last_modified,
			last_access = excluded.last_access
	`, o.URL, o.Content, o.LastModified.UTC(), o.LastAccess.UTC())
	if err != nil {
		return fmt.Errorf("sqlite put %s: %w", o.URL, err)
	}
	return nil
}

func (s *SQLiteStore) Touch(ctx context.Context, url string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE origin_cache SET last_access = ? WHERE url = ?`, at.UTC(), url)
	if err != nil {
		return fmt.Errorf("sqlite touch %s: %w", url, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM origin_cache WHERE last_access < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("sqlite delete stale: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM origin_cache`)
	if err != nil {
		return 0, fmt.Errorf("sqlite delete all: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
