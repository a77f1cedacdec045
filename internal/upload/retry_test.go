package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podo/internal/services"
)

func TestBackoffStaysWithinCap(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, Initial: 100 * time.Millisecond, Max: 400 * time.Millisecond, Multiplier: 2}
	for attempt := 1; attempt <= 10; attempt++ {
		for range 50 {
			d := p.Backoff(attempt)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, 400*time.Millisecond)
		}
	}
	assert.Zero(t, RetryPolicy{}.Backoff(3))
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5}
	calls := 0
	attempts, err := p.Do(context.Background(), IsExpiryClass, func(int) error {
		calls++
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesExpiryClass(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4}
	attempts, err := p.Do(context.Background(), IsExpiryClass, func(attempt int) error {
		if attempt < 3 {
			return fmt.Errorf("put: %w", ErrTokenExpired)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoHonoursCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := RetryPolicy{MaxAttempts: 3, Initial: time.Hour, Max: time.Hour, Multiplier: 2}
	// Backoff can draw 0ms; loop until the policy actually has to wait.
	var err error
	for range 20 {
		_, err = p.Do(ctx, IsExpiryClass, func(int) error { return ErrTokenExpired })
		if errors.Is(err, context.Canceled) {
			break
		}
	}
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestShouldRetryClassification(t *testing.T) {
	forbidden := &services.HTTPError{Method: http.MethodPut, Endpoint: "u", StatusCode: http.StatusForbidden}
	assert.True(t, shouldRetry(forbidden))
	assert.True(t, shouldRetry(&authorizeError{err: ErrTokenExpired}))
	assert.False(t, shouldRetry(&authorizeError{err: forbidden}))
	assert.False(t, shouldRetry(&services.HTTPError{StatusCode: http.StatusInternalServerError}))
}
