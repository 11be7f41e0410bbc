// Package ratelimit spaces out calls to an external service.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// MinQPS is the lowest rate a positive qps is clamped to.
const MinQPS = 0.1

// Limiter enforces a minimum interval between calls shared by every
// goroutine holding it. Each Wait reserves the next free slot under a
// mutex and then sleeps outside the lock, so concurrent callers are
// spaced exactly 1/qps apart.
type Limiter struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a limiter allowing qps calls per second. qps <= 0 disables
// limiting.
func New(qps float64) *Limiter {
	l := &Limiter{now: time.Now, sleep: sleepCtx}
	if qps > 0 {
		if qps < MinQPS {
			qps = MinQPS
		}
		l.interval = time.Duration(math.Round(float64(time.Second) / qps))
	}
	return l
}

// Interval returns the enforced spacing between calls.
func (l *Limiter) Interval() time.Duration {
	if l == nil {
		return 0
	}
	return l.interval
}

// Wait blocks until the caller's reserved slot arrives or ctx is done.
// A nil Limiter never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := l.now()
	at := l.next
	if at.Before(now) {
		at = now
	}
	l.next = at.Add(l.interval)
	l.mu.Unlock()

	if d := at.Sub(now); d > 0 {
		return l.sleep(ctx, d)
	}
	return ctx.Err()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
