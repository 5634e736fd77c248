package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock advances manually and records requested sleeps, advancing the
// clock by the slept amount like a real suspension would.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(max int) (*Limiter, *fakeClock) {
	clock := newFakeClock()
	l := New(max)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l, clock
}

func TestLimiter(t *testing.T) {
	t.Run("Admits Under Quota Without Sleeping", func(t *testing.T) {
		l, clock := newTestLimiter(3)

		for i := 0; i < 3; i++ {
			l.Acquire()
		}

		if len(clock.sleeps) != 0 {
			t.Errorf("expected no sleeps under quota, got %v", clock.sleeps)
		}
		if l.Pending() != 3 {
			t.Errorf("expected 3 recorded calls, got %d", l.Pending())
		}
	})

	t.Run("Blocks When Quota Exhausted", func(t *testing.T) {
		l, clock := newTestLimiter(2)

		l.Acquire()
		clock.Advance(10 * time.Second)
		l.Acquire()

		// Third call must wait until the first ages out: 60s - 10s = 50s
		l.Acquire()

		if len(clock.sleeps) != 1 {
			t.Fatalf("expected exactly one sleep, got %v", clock.sleeps)
		}
		if clock.sleeps[0] != 50*time.Second {
			t.Errorf("expected 50s sleep, got %v", clock.sleeps[0])
		}
	})

	t.Run("Expired Entries Are Evicted Lazily", func(t *testing.T) {
		l, clock := newTestLimiter(2)

		l.Acquire()
		l.Acquire()
		clock.Advance(61 * time.Second)

		l.Acquire()

		if len(clock.sleeps) != 0 {
			t.Errorf("expected no sleep after window elapsed, got %v", clock.sleeps)
		}
		if l.Pending() != 1 {
			t.Errorf("expected only the new call in the window, got %d", l.Pending())
		}
	})

	t.Run("Window Never Exceeds Quota", func(t *testing.T) {
		const max = 5
		l, clock := newTestLimiter(max)

		var timestamps []time.Time
		for i := 0; i < 20; i++ {
			l.Acquire()
			timestamps = append(timestamps, clock.Now())
			clock.Advance(3 * time.Second)
		}

		// For every admitted call, count admissions within the trailing minute
		for i, ts := range timestamps {
			count := 0
			for _, other := range timestamps[:i+1] {
				if ts.Sub(other) < time.Minute {
					count++
				}
			}
			if count > max {
				t.Fatalf("window at call %d holds %d admissions, max %d", i, count, max)
			}
		}
	})

	t.Run("Concurrent Acquire Is Safe", func(t *testing.T) {
		l := New(1000)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					l.Acquire()
				}
			}()
		}
		wg.Wait()

		if l.Pending() != 400 {
			t.Errorf("expected 400 recorded calls, got %d", l.Pending())
		}
	})
}
