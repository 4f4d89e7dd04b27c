package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"datfeed/gateway/internal/models"
)

const createOriginCacheSQL = `
create table if not exists origin_cache (
	url text primary key,
	content bytea not null,
	last_modified timestamptz not null,
	last_access timestamptz not null
);
create index if not exists origin_cache_last_access_idx on origin_cache (last_access);
`

// PostgresStore keeps origins in a postgres origin_cache table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to connString and creates the table if needed.
func OpenPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if _, err := pool.Exec(ctx, createOriginCacheSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, url string) (models.CachedOrigin, error) {
	o := models.CachedOrigin{URL: url}
	err := s.pool.QueryRow(ctx,
		`select content, last_modified, last_access from origin_cache where url = $1`, url,
	).Scan(&o.Content, &o.LastModified, &o.LastAccess)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CachedOrigin{}, ErrNotFound
	}
	if err != nil {
		return models.CachedOrigin{}, fmt.Errorf("postgres get %s: %w", url, err)
	}
	o.LastModified = o.LastModified.UTC()
	o.LastAccess = o.LastAccess.UTC()
	return o, nil
}

func (s *PostgresStore) Put(ctx context.Context, o models.CachedOrigin) error {
	_, err := s.pool.Exec(ctx, `
		insert into origin_cache (url, content, last_modified, last_access)
		values ($1, $2, $3, $4)
		on conflict (url) do update set
			content = excluded.content,
			last_modified = excluded.last_modified,
			last_access = excluded.last_access`,
		o.URL, o.Content, o.LastModified.UTC(), o.LastAccess.UTC())
	if err != nil {
		return fmt.Errorf("postgres put %s: %w", o.URL, err)
	}
	return nil
}

func (s *PostgresStore) Touch(ctx context.Context, url string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `update origin_cache set last_access = $1 where url = $2`, at.UTC(), url)
	if err != nil {
		return fmt.Errorf("postgres touch %s: %w", url, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `delete from origin_cache where last_access < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("postgres delete stale: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `delete from origin_cache`)
	if err != nil {
		return 0, fmt.Errorf("postgres delete all: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
