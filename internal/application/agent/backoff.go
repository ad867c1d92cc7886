package agent

import (
	"context"
	"math"
	"math/rand"
	"time"

	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// BackoffPolicy is an exponential back-off with jitter, generalized from
// the teacher's executor.RetryPolicy for the two call sites that need
// retry-on-transient-failure in this domain: provider calls (§4.1,
// §7 ProviderError) and the symphony_save tool call (§4.5 step 4).
type BackoffPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultProviderBackoff is the policy applied to LLM provider calls.
func DefaultProviderBackoff() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// DeploySaveBackoff is the policy applied to symphony_save (§4.5 step 4:
// "bounded retries, exponential back-off on rate-limit errors, <= 3 attempts").
func DeploySaveBackoff() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

func (p BackoffPolicy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter {
		jitter := d * 0.1
		d += (2*rand.Float64() - 1) * jitter
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Do runs fn up to p.MaxAttempts times, waiting with exponential back-off
// between attempts, stopping early on a non-retryable error or on
// context cancellation. Only errors domainerrors.IsRetryable accepts are
// retried; anything else returns immediately.
func (p BackoffPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay(attempt - 1)):
			}
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !domainerrors.IsRetryable(err) {
			return err
		}
	}
	return lastErr
}
