package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is the default in-process cache backend.
type Memory struct {
	retention time.Duration

	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates an in-memory cache. Entries fetched longer ago than
// the retention window are pruned on write, so stale menus age out
// without a sweeper goroutine.
func NewMemory(retention time.Duration) *Memory {
	return &Memory{
		retention: retention,
		entries:   make(map[string]Entry),
	}
}

// Get returns the cached PDF for the key, if present.
func (m *Memory) Get(ctx context.Context, key Key) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key.String()]
	return entry, ok, nil
}

// Put stores the PDF for the key; last write wins.
func (m *Memory) Put(ctx context.Context, key Key, pdf []byte) error {
	data := make([]byte, len(pdf))
	copy(data, pdf)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key.String()] = Entry{PDF: data, FetchedAt: time.Now()}
	m.pruneLocked()
	return nil
}

// Close implements Cache.
func (m *Memory) Close() error { return nil }

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) pruneLocked() {
	cutoff := time.Now().Add(-m.retention)
	for k, e := range m.entries {
		if e.FetchedAt.Before(cutoff) {
			delete(m.entries, k)
		}
	}
}
