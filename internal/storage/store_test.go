package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datfeed/gateway/internal/database"
	"datfeed/gateway/internal/models"
)

func newSQLiteStore(t *testing.T) Store {
	db, err := database.NewDB(database.NewConfig(filepath.Join(t.TempDir(), "origin.db")))
	require.NoError(t, err)
	return NewSQLiteStore(db)
}

func newLevelDBStore(t *testing.T) Store {
	s, err := OpenLevelDB(filepath.Join(t.TempDir(), "leveldb"))
	require.NoError(t, err)
	return s
}

func newPostgresStore(t *testing.T) Store {
	connString := os.Getenv("DATFEED_TEST_POSTGRES")
	if connString == "" {
		t.Skip("DATFEED_TEST_POSTGRES not set")
	}
	s, err := OpenPostgres(context.Background(), connString)
	require.NoError(t, err)
	_, err = s.DeleteAll(context.Background())
	require.NoError(t, err)
	return s
}

func TestStores(t *testing.T) {
	backends := map[string]func(*testing.T) Store{
		"sqlite":   newSQLiteStore,
		"leveldb":  newLevelDBStore,
		"postgres": newPostgresStore,
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("GetPut", func(t *testing.T) { testStoreGetPut(t, open(t)) })
			t.Run("Touch", func(t *testing.T) { testStoreTouch(t, open(t)) })
			t.Run("DeleteOlderThan", func(t *testing.T) { testStoreDeleteOlderThan(t, open(t)) })
			t.Run("DeleteAll", func(t *testing.T) { testStoreDeleteAll(t, open(t)) })
		})
	}
}

var base = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func mustPut(t *testing.T, s Store, url string, lastAccess time.Time) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), models.CachedOrigin{
		URL:          url,
		Content:      []byte("content of " + url),
		LastModified: base,
		LastAccess:   lastAccess,
	}))
}

func testStoreGetPut(t *testing.T, s Store) {
	defer s.Close()
	ctx := context.Background()

	_, err := s.Get(ctx, "http://a.2ch.net/news/subject.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	mustPut(t, s, "http://a.2ch.net/news/subject.txt", base)
	o, err := s.Get(ctx, "http://a.2ch.net/news/subject.txt")
	require.NoError(t, err)
	assert.Equal(t, "http://a.2ch.net/news/subject.txt", o.URL)
	assert.Equal(t, []byte("content of http://a.2ch.net/news/subject.txt"), o.Content)
	assert.True(t, base.Equal(o.LastModified), "last modified %v", o.LastModified)
	assert.True(t, base.Equal(o.LastAccess), "last access %v", o.LastAccess)

	// Put replaces the whole record.
	later := base.Add(time.Hour)
	require.NoError(t, s.Put(ctx, models.CachedOrigin{
		URL:          "http://a.2ch.net/news/subject.txt",
		Content:      []byte("new"),
		LastModified: later,
		LastAccess:   later,
	}))
	o, err = s.Get(ctx, "http://a.2ch.net/news/subject.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), o.Content)
	assert.True(t, later.Equal(o.LastModified))
}

func testStoreTouch(t *testing.T, s Store) {
	defer s.Close()
	ctx := context.Background()

	assert.ErrorIs(t, s.Touch(ctx, "http://missing/", base), ErrNotFound)

	mustPut(t, s, "http://a.2ch.net/news/dat/1.dat", base)
	touched := base.Add(30 * time.Minute)
	require.NoError(t, s.Touch(ctx, "http://a.2ch.net/news/dat/1.dat", touched))

	o, err := s.Get(ctx, "http://a.2ch.net/news/dat/1.dat")
	require.NoError(t, err)
	assert.True(t, touched.Equal(o.LastAccess))
	assert.True(t, base.Equal(o.LastModified))
	assert.Equal(t, []byte("content of http://a.2ch.net/news/dat/1.dat"), o.Content)
}

func testStoreDeleteOlderThan(t *testing.T, s Store) {
	defer s.Close()
	ctx := context.Background()

	mustPut(t, s, "http://old/", base)
	mustPut(t, s, "http://new/", base.Add(2*time.Hour))

	n, err := s.DeleteOlderThan(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.Get(ctx, "http://old/")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "http://new/")
	assert.NoError(t, err)

	n, err = s.DeleteOlderThan(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func testStoreDeleteAll(t *testing.T, s Store) {
	defer s.Close()
	ctx := context.Background()

	mustPut(t, s, "http://one/", base)
	mustPut(t, s, "http://two/", base)

	n, err := s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.Get(ctx, "http://one/")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err = s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}
