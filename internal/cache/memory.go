package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/pratik-mahalle/opsguard/internal/pkg/metrics"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is the in-process backend; expiry is checked lazily on read
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	hits    int64
	misses  int64
	now     func() time.Time
}

// NewMemory creates an empty in-process cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string, dest interface{}) bool {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && entry.expired(m.now()) {
		delete(m.entries, key)
		ok = false
	}
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	m.mu.Unlock()

	if !ok {
		metrics.RecordCacheOperation("get", "miss")
		return false
	}
	metrics.RecordCacheOperation("get", "hit")
	return json.Unmarshal(entry.value, dest) == nil
}

func (m *Memory) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		return false
	}

	entry := memoryEntry{value: data}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return true
}

func (m *Memory) Delete(ctx context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return true
}

func (m *Memory) Clear(ctx context.Context, pattern string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pattern == "" {
		m.entries = make(map[string]memoryEntry)
		return true
	}
	// redis KEYS semantics: '*' spans any character, ':' and '/' included
	g, err := glob.Compile(pattern)
	if err != nil {
		return false
	}
	for key := range m.entries {
		if g.Match(key) {
			delete(m.entries, key)
		}
	}
	return true
}

func (m *Memory) Stats(ctx context.Context) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Backend:   BackendMemory,
		Connected: true,
		Keys:      int64(len(m.entries)),
		Hits:      m.hits,
		Misses:    m.misses,
		HitRate:   hitRate(m.hits, m.misses),
	}
}

func (m *Memory) CleanupExpired(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

func (m *Memory) Close() error {
	return nil
}
