package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datfeed/gateway/internal/database/migrations"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(NewConfig(filepath.Join(t.TempDir(), "nested", "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDBAppliesMigrations(t *testing.T) {
	db := openTestDB(t)

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'origin_cache'"))
	assert.Equal(t, 1, n)

	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 1, n)
}

func TestMigrationsRunTwice(t *testing.T) {
	db := openTestDB(t)

	all, err := migrations.Embedded()
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db.DB.DB, all))

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, len(all), n)
}

func TestMigrationsRollback(t *testing.T) {
	db := openTestDB(t)

	all, err := migrations.Embedded()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "origin_cache", all[0].Name)

	require.NoError(t, migrations.Rollback(db.DB.DB, all, 1))

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'origin_cache'"))
	assert.Equal(t, 0, n)
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 0, n)
}
