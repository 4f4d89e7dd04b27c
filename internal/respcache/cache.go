package respcache

import (
	"sync"
	"time"
)

// Entry is a cached value or, when Err is set, a remembered failure.
type Entry[V any] struct {
	Value V
	Err   error
}

// Negative reports whether the entry records a failure.
func (e Entry[V]) Negative() bool {
	return e.Err != nil
}

// Store is a volatile key/value cache with per-entry expiry.
type Store[V any] interface {
	Get(key string) (Entry[V], bool)
	Put(key string, entry Entry[V], ttl time.Duration)
	Sweep() int
	Flush()
}

type item[V any] struct {
	entry   Entry[V]
	expires time.Time
}

// Memory is an in-process Store guarded by a mutex.
type Memory[V any] struct {
	mu    sync.Mutex
	items map[string]item[V]
	now   func() time.Time
}

func NewMemory[V any]() *Memory[V] {
	return NewMemoryWithClock[V](time.Now)
}

func NewMemoryWithClock[V any](now func() time.Time) *Memory[V] {
	return &Memory[V]{items: make(map[string]item[V]), now: now}
}

func (m *Memory[V]) Get(key string) (Entry[V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if !ok {
		return Entry[V]{}, false
	}
	if !m.now().Before(it.expires) {
		delete(m.items, key)
		return Entry[V]{}, false
	}
	return it.entry, true
}

// Put stores entry for ttl. A non-positive ttl removes the key.
func (m *Memory[V]) Put(key string, entry Entry[V], ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		delete(m.items, key)
		return
	}
	m.items[key] = item[V]{entry: entry, expires: m.now().Add(ttl)}
}

// Sweep drops expired entries and returns how many were removed.
func (m *Memory[V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for k, it := range m.items {
		if !now.Before(it.expires) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *Memory[V]) Flush() {
	m.mu.Lock()
	m.items = make(map[string]item[V])
	m.mu.Unlock()
}

func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
