package tokens

import (
	"context"
	"sync"
	"time"
)

// MemoryBlacklist is used when no Redis address is configured. Revocations
// are lost on restart and are not shared between replicas.
type MemoryBlacklist struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]time.Time
}

func NewMemory() *MemoryBlacklist {
	return &MemoryBlacklist{now: time.Now, entries: map[string]time.Time{}}
}

func (m *MemoryBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[jti] = m.now().Add(ttl)
	return nil
}

func (m *MemoryBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expires, ok := m.entries[jti]
	if !ok {
		return false, nil
	}
	if m.now().After(expires) {
		delete(m.entries, jti)
		return false, nil
	}
	return true, nil
}

// Sweep drops expired entries.
func (m *MemoryBlacklist) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for jti, expires := range m.entries {
		if now.After(expires) {
			delete(m.entries, jti)
			removed++
		}
	}
	return removed
}
