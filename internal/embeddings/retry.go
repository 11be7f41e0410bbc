package embeddings

import (
	"context"
	"time"
)

// RetryPolicy describes how a failed external call is retried.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// Backoff returns the pause before retry number attempt (0-based).
	Backoff func(attempt int) time.Duration
	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy retries three times after 0.5s, 1s and 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		Backoff:    ExponentialBackoff(500 * time.Millisecond),
		Sleep:      sleepCtx,
	}
}

// NoRetry makes a single attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{}
}

// ExponentialBackoff returns base * 2^attempt.
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base << uint(attempt)
	}
}

// Attempts returns the total number of calls the policy allows.
func (p RetryPolicy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Retry runs fn until it succeeds, the policy is exhausted or ctx is done.
// fn receives the 0-based attempt number. The last error is returned.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	for attempt := 0; attempt < p.Attempts(); attempt++ {
		if attempt > 0 {
			var d time.Duration
			if p.Backoff != nil {
				d = p.Backoff(attempt - 1)
			}
			if err := sleep(ctx, d); err != nil {
				return zero, err
			}
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
