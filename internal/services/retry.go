package services

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy is a reusable backoff policy: exponential delay with jitter, a
// bounded number of attempts, and a caller-supplied classifier deciding which
// errors are worth retrying. The context deadline caps the whole run.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter is the fraction of the computed delay added at random.
	Jitter    float64
	Retryable func(error) bool
}

func DefaultRetryPolicy(maxAttempts int, baseDelay time.Duration, retryable func(error) bool) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    30 * time.Second,
		Jitter:      0.2,
		Retryable:   retryable,
	}
}

// Do runs op until it succeeds, fails permanently, exhausts the attempt
// budget, or the context expires. The last error seen is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.delay(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	delay := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		delay += time.Duration(rand.Float64() * p.Jitter * float64(delay))
	}
	return delay
}
