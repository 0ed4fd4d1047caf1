package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidRetryPolicy is returned when a RetryPolicy fails validation.
var ErrInvalidRetryPolicy = errors.New("retry policy: MaxAttempts must be greater than 0")

// RetryPolicy controls how embedding calls are retried. It is injected as
// configuration rather than hardcoded control flow: one attempt ceiling shared
// by all failure kinds, with a per-kind delay between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// WarmupDelay is the cooldown after a "model warming up" failure
	// (a failure matching ErrModelWarmingUp).
	WarmupDelay time.Duration

	// TransientDelay is the wait after any other transient failure
	// (network error, malformed response).
	TransientDelay time.Duration
}

// DefaultRetryPolicy returns the policy used against the hosted inference API:
// 3 total attempts, 10s warm-up cooldown, 2s transient delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		WarmupDelay:    10 * time.Second,
		TransientDelay: 2 * time.Second,
	}
}

// Validate checks that the policy is usable.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidRetryPolicy
	}
	return nil
}

// Do runs operation up to MaxAttempts times, waiting between attempts according
// to the failure kind of the last error. Returns the last attempt's error if
// all attempts fail. The wait honors ctx cancellation.
func (p RetryPolicy) Do(ctx context.Context, operation func() error) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.TransientDelay
		if errors.Is(lastErr, ErrModelWarmingUp) {
			delay = p.WarmupDelay
		}
		slog.Debug("operation failed, will retry",
			"attempt", attempt, "maxAttempts", p.MaxAttempts, "delay", delay, "error", lastErr)

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
