package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	ClockIns       = "clock_ins"
	ClockOuts      = "clock_outs"
	LeaveSubmitted = "leave_submitted"
	LeaveApproved  = "leave_approved"
	LeaveRejected  = "leave_rejected"
	Conflicts      = "conflicts"
	LoginsFailed   = "logins_failed"
	TokensRevoked  = "tokens_revoked"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu     sync.RWMutex
	events map[string]*uint64
}

func New() *Collector {
	return &Collector{events: map[string]*uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// Inc bumps a named domain counter. A nil collector is a no-op.
func (c *Collector) Inc(name string) {
	if c == nil {
		return
	}
	c.mu.RLock()
	counter, ok := c.events[name]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		if counter, ok = c.events[name]; !ok {
			counter = new(uint64)
			c.events[name] = counter
		}
		c.mu.Unlock()
	}
	atomic.AddUint64(counter, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.RLock()
	events := make(map[string]uint64, len(c.events))
	for name, counter := range c.events {
		events[name] = atomic.LoadUint64(counter)
	}
	c.mu.RUnlock()

	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"events":           events,
	}
}
