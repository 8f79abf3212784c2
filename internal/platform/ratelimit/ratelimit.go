package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Window is the state of one fixed window after a hit.
type Window struct {
	Count int
	Reset time.Time
}

// Store counts hits per key inside fixed windows.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (Window, error)
}

type bucket struct {
	count int
	reset time.Time
}

type Memory struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	now       func() time.Time
	lastSweep time.Time
}

func NewMemory() *Memory {
	return &Memory{buckets: map[string]*bucket{}, now: time.Now}
}

func (m *Memory) Hit(_ context.Context, key string, window time.Duration) (Window, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= time.Minute {
		for k, b := range m.buckets {
			if now.After(b.reset) {
				delete(m.buckets, k)
			}
		}
		m.lastSweep = now
	}

	b, ok := m.buckets[key]
	if !ok || now.After(b.reset) {
		b = &bucket{reset: now.Add(window)}
		m.buckets[key] = b
	}
	b.count++
	return Window{Count: b.count, Reset: b.reset}, nil
}

const redisPrefix = "ets:ratelimit:"

// Redis shares windows between API instances.
type Redis struct {
	rdb goredis.UniversalClient
	now func() time.Time
}

func NewRedis(rdb goredis.UniversalClient) *Redis {
	return &Redis{rdb: rdb, now: time.Now}
}

func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (Window, error) {
	full := redisPrefix + key

	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, full)
	ttl := pipe.PTTL(ctx, full)
	if _, err := pipe.Exec(ctx); err != nil {
		return Window{}, fmt.Errorf("rate limit hit: %w", err)
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		// first hit in the window, or a key left without expiry
		if err := r.rdb.PExpire(ctx, full, window).Err(); err != nil {
			return Window{}, fmt.Errorf("rate limit expire: %w", err)
		}
		remaining = window
	}
	return Window{Count: int(incr.Val()), Reset: r.now().Add(remaining)}, nil
}
