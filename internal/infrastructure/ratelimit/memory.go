package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a process-local sliding window for tests and single-node runs.
type MemoryLimiter struct {
	mu     sync.Mutex
	events map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration, now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{events: make(map[string][]time.Time), limit: limit, window: window, now: now}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.events[key][:0]
	for _, t := range l.events[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.events[key] = kept
		reset := l.window
		if len(kept) > 0 {
			reset = kept[0].Add(l.window).Sub(now)
		}
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, ResetIn: reset}, nil
	}

	kept = append(kept, now)
	l.events[key] = kept
	return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - len(kept), ResetIn: l.window}, nil
}
