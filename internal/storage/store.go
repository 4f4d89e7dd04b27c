package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datfeed/gateway/internal/config"
	"datfeed/gateway/internal/database"
	"datfeed/gateway/internal/models"
)

// ErrNotFound is returned when no record exists for a URL.
var ErrNotFound = errors.New("storage: origin not found")

// Store persists raw origin resources keyed by URL. Implementations are
// safe for concurrent use; every method replaces or removes whole records.
type Store interface {
	Get(ctx context.Context, url string) (models.CachedOrigin, error)
	Put(ctx context.Context, origin models.CachedOrigin) error
	// Touch sets LastAccess only.
	Touch(ctx context.Context, url string, at time.Time) error
	// DeleteOlderThan removes records last accessed before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Close() error
}

// Open returns the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		db, err := database.NewDB(database.NewConfig(cfg.DBPath))
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(db), nil
	case "leveldb":
		return OpenLevelDB(cfg.LevelDBPath)
	case "postgres":
		return OpenPostgres(ctx, cfg.PostgresURL)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StoreDriver)
	}
}
