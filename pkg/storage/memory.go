package storage

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache keeps entries in process, evicting the least recently used
// entry once maxEntries is reached.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	entries *lru.Cache[string, Entry]
}

// NewMemoryCache creates a MemoryCache holding at most maxEntries entries.
func NewMemoryCache(maxEntries int, ttl time.Duration) (*MemoryCache, error) {
	entries, err := lru.New[string, Entry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru (size=%d): %w", maxEntries, err)
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: entries,
	}, nil
}

// Get returns a copy of the entry for key if it is still fresh.
func (m *MemoryCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	e, ok := m.entries.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	if !fresh(e.CreatedAt, m.now(), m.ttl) {
		return Entry{}, false, nil
	}
	e.Series = e.Series.Clone()
	return e, true, nil
}

// Put stores a copy of entry under key, replacing any previous entry.
func (m *MemoryCache) Put(ctx context.Context, key string, entry Entry) error {
	entry.Series = entry.Series.Clone()
	m.entries.Add(key, entry)
	return nil
}

// Sweep drops every stale entry.
func (m *MemoryCache) Sweep(ctx context.Context) (int, error) {
	now := m.now()
	var removed int
	for _, key := range m.entries.Keys() {
		e, ok := m.entries.Peek(key)
		if ok && !fresh(e.CreatedAt, now, m.ttl) {
			if m.entries.Remove(key) {
				removed++
			}
		}
	}
	return removed, nil
}

// Len returns the number of entries held, stale or not.
func (m *MemoryCache) Len() int {
	return m.entries.Len()
}

// Close is a no-op.
func (m *MemoryCache) Close() error {
	return nil
}
