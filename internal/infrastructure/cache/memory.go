package cache

import (
	"sync"
	"time"

	"LegalScanner/internal/ports"
)

// Memory is a mutex-guarded TTL cache. The pipeline uses it to remember
// classifier verdicts per URL between runs, so a rediscovered document is
// not sent to the model again while the entry is fresh.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value   []byte
	expires time.Time
}

var _ ports.Cache = (*Memory)(nil)

// NewMemory builds a cache with the given TTL. A non-positive TTL makes
// every entry expire immediately.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: map[string]entry{},
		now:     time.Now,
	}
}

// Get returns the cached value when present and fresh. Stale entries are
// dropped on access.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores the value under key for the configured TTL.
func (m *Memory) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{value: value, expires: m.now().Add(m.ttl)}
}
