package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"datfeed/gateway/internal/models"
)

const originPrefix = "o:"

// LevelDBStore keeps gob-encoded origins under the "o:" key prefix.
type LevelDBStore struct {
	db *leveldb.DB
	mu sync.Mutex // serializes read-modify-write in Touch
}

func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("leveldb open %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

func originKey(url string) []byte {
	return []byte(originPrefix + url)
}

func (s *LevelDBStore) Get(_ context.Context, url string) (models.CachedOrigin, error) {
	b, err := s.db.Get(originKey(url), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return models.CachedOrigin{}, ErrNotFound
	}
	if err != nil {
		return models.CachedOrigin{}, fmt.Errorf("leveldb get %s: %w", url, err)
	}
	return decodeOrigin(b)
}

func (s *LevelDBStore) Put(_ context.Context, o models.CachedOrigin) error {
	o.LastModified = o.LastModified.UTC()
	o.LastAccess = o.LastAccess.UTC()
	b, err := encodeOrigin(o)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Put(originKey(o.URL), b, nil); err != nil {
		return fmt.Errorf("leveldb put %s: %w", o.URL, err)
	}
	return nil
}

func (s *LevelDBStore) Touch(ctx context.Context, url string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.Get(ctx, url)
	if err != nil {
		return err
	}
	o.LastAccess = at.UTC()
	b, err := encodeOrigin(o)
	if err != nil {
		return err
	}
	if err := s.db.Put(originKey(url), b, nil); err != nil {
		return fmt.Errorf("leveldb touch %s: %w", url, err)
	}
	return nil
}

func (s *LevelDBStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	return s.deleteWhere(func(o models.CachedOrigin) bool {
		return o.LastAccess.Before(cutoff)
	})
}

func (s *LevelDBStore) DeleteAll(_ context.Context) (int64, error) {
	return s.deleteWhere(func(models.CachedOrigin) bool { return true })
}

func (s *LevelDBStore) deleteWhere(match func(models.CachedOrigin) bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.db.NewIterator(util.BytesPrefix([]byte(originPrefix)), nil)
	batch := new(leveldb.Batch)
	var n int64
	for it.Next() {
		o, err := decodeOrigin(it.Value())
		if err != nil || match(o) {
			batch.Delete(append([]byte(nil), it.Key()...))
			n++
		}
	}
	it.Release()
	if err := it.Error(); err != nil {
		return 0, fmt.Errorf("leveldb scan: %w", err)
	}

	if n == 0 {
		return 0, nil
	}
	if err := s.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("leveldb delete: %w", err)
	}
	return n, nil
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func encodeOrigin(o models.CachedOrigin) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(o); err != nil {
		return nil, fmt.Errorf("encode origin %s: %w", o.URL, err)
	}
	return buf.Bytes(), nil
}

func decodeOrigin(b []byte) (models.CachedOrigin, error) {
	var o models.CachedOrigin
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&o); err != nil {
		return models.CachedOrigin{}, fmt.Errorf("decode origin: %w", err)
	}
	return o, nil
}
