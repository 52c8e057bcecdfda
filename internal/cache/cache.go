// Package cache provides a small in-memory read cache in front of the
// local store. Entries expire on a TTL and the cache is bounded; writes
// invalidate by entity type so a stale listing is never served after a
// mutation.
package cache

import (
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long an entry is served before it expires.
	DefaultTTL = 5 * time.Minute
	// DefaultMaxEntries bounds the cache size.
	DefaultMaxEntries = 512
)

type entry struct {
	value    interface{}
	expires  time.Time
	lastUsed time.Time
}

// Manager is a TTL cache keyed by strings of the form
// "<entity-type>:<qualifier>". Safe for concurrent use.
type Manager struct {
	mu         sync.Mutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int

	hits   uint64
	misses uint64

	now func() time.Time
}

// New creates a Manager with the given TTL and capacity. Zero values use
// the defaults.
func New(ttl time.Duration, maxEntries int) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Manager{
		entries:    make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Key builds a cache key from an entity type and qualifier parts.
func Key(entityType string, parts ...string) string {
	if len(parts) == 0 {
		return entityType
	}
	return entityType + ":" + strings.Join(parts, ":")
}

// Get returns the cached value for key, or nil and false when the key is
// absent or expired.
func (m *Manager) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil, false
	}
	now := m.now()
	if now.After(e.expires) {
		delete(m.entries, key)
		m.misses++
		return nil, false
	}
	e.lastUsed = now
	m.hits++
	return e.value, true
}

// Set stores a value under key. When the cache is full the least recently
// used entry is evicted.
func (m *Manager) Set(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.maxEntries {
		m.evictOldest()
	}
	m.entries[key] = &entry{
		value:    value,
		expires:  now.Add(m.ttl),
		lastUsed: now,
	}
}

// evictOldest removes the least recently used entry. Caller holds mu.
func (m *Manager) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range m.entries {
		if oldestKey == "" || e.lastUsed.Before(oldest) {
			oldestKey = k
			oldest = e.lastUsed
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

// InvalidateType removes every entry for an entity type.
func (m *Manager) InvalidateType(entityType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := entityType + ":"
	for k := range m.entries {
		if k == entityType || strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}

// InvalidateAll empties the cache.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
}

// Stats reports cache effectiveness.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Stats returns a snapshot of the cache counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Entries: len(m.entries),
		Hits:    m.hits,
		Misses:  m.misses,
	}
}
