package services

import (
	"context"
	"math/rand"
	"time"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/logger"
)

const (
	// DefaultMaxAttempts bounds retries per work unit, first try included.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay seeds the exponential backoff.
	DefaultRetryBaseDelay = 2 * time.Second
)

// retryPolicy retries transient failures with exponential backoff and a
// little jitter. Non-transient errors fail immediately.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetryPolicy(maxAttempts int, baseDelay time.Duration) *retryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBaseDelay
	}
	return &retryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepCtx,
	}
}

// do runs fn until it succeeds, fails terminally, or attempts run out.
// Returns the attempt count alongside the final error.
func (p *retryPolicy) do(ctx context.Context, label string, fn func(ctx context.Context) error) (int, error) {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if !domain.Transient(err) || attempt >= p.maxAttempts {
			return attempt, err
		}

		delay := p.backoff(attempt)
		logger.Debug("%s failed (attempt %d/%d), retrying in %s: %v", label, attempt, p.maxAttempts, delay, err)
		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			return attempt, sleepErr
		}
	}
}

// backoff doubles the delay per attempt with up to 25% jitter.
func (p *retryPolicy) backoff(attempt int) time.Duration {
	delay := p.baseDelay << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
