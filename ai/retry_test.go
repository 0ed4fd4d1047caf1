package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		WarmupDelay:    5 * time.Millisecond,
		TransientDelay: time.Millisecond,
	}
}

func TestRetryPolicy_Do_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_Do_SucceedsSecondAttempt(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicy_Do_ExhaustsAttempts(t *testing.T) {
	calls := 0
	lastErr := errors.New("still broken")
	err := testPolicy().Do(context.Background(), func() error {
		calls++
		return lastErr
	})
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, lastErr)
}

func TestRetryPolicy_Do_WarmupUsesLongerDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:    2,
		WarmupDelay:    30 * time.Millisecond,
		TransientDelay: time.Millisecond,
	}

	start := time.Now()
	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return fmt.Errorf("%w: status 503", ErrModelWarmingUp)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRetryPolicy_Do_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := testPolicy().Do(ctx, func() error {
		calls++
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetryPolicy_Do_CancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{
		MaxAttempts:    3,
		WarmupDelay:    time.Minute,
		TransientDelay: time.Minute,
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, func() error {
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultRetryPolicy().Validate())
	assert.ErrorIs(t, RetryPolicy{}.Validate(), ErrInvalidRetryPolicy)
	assert.ErrorIs(t, RetryPolicy{MaxAttempts: -1}.Do(context.Background(), func() error { return nil }), ErrInvalidRetryPolicy)
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 10*time.Second, policy.WarmupDelay)
	assert.Equal(t, 2*time.Second, policy.TransientDelay)
}
