// Package ratelimit implements the blocking admission gate for catalog calls.
//
// [Limiter] enforces a sliding per-minute quota: at most maxPerMinute calls
// inside any trailing window. It is not a queue; callers serialize through
// one mutex in FIFO arrival order, and a caller may sleep up to the window
// length when the budget is exhausted.
package ratelimit

import (
	"sync"
	"time"
)

const window = time.Minute

// Limiter bounds outbound calls to maxPerMinute within a trailing one-minute
// window. The zero value is unusable; use [New].
type Limiter struct {
	mu           sync.Mutex
	maxPerMinute int
	requests     []time.Time

	// now and sleep are swappable so tests can run without wall-clock delays.
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a Limiter admitting maxPerMinute calls per rolling minute.
func New(maxPerMinute int) *Limiter {
	return &Limiter{
		maxPerMinute: maxPerMinute,
		now:          time.Now,
		sleep:        time.Sleep,
	}
}

// Acquire blocks until issuing one more call stays within the quota, then
// records the call's timestamp and returns.
//
// Entries older than the window are dropped lazily on each call; when the
// budget is exhausted the caller sleeps until the oldest recorded call ages
// out. The mutex is held across the sleep so waiters are admitted one at a
// time; never call Acquire while holding another shared lock.
func (l *Limiter) Acquire() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	if len(l.requests) >= l.maxPerMinute {
		if wait := window - now.Sub(l.requests[0]); wait > 0 {
			l.sleep(wait)
			now = l.now()
			l.evict(now)
		}
	}

	l.requests = append(l.requests, now)
}

// Pending returns the number of calls currently recorded in the window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(l.now())
	return len(l.requests)
}

// evict drops window entries older than one minute. Callers hold l.mu.
func (l *Limiter) evict(now time.Time) {
	keep := l.requests[:0]
	for _, t := range l.requests {
		if now.Sub(t) < window {
			keep = append(keep, t)
		}
	}
	l.requests = keep
}
