package upload

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"podo/internal/services"
)

// ErrTokenExpired lets an Authorizer or Transport report that an upload URL
// expired before it could be used. Such failures are retried with a fresh URL.
var ErrTokenExpired = errors.New("upload authorization expired")

// RetryPolicy bounds retries of expiry-class failures. MaxAttempts counts
// the first try; 1 disables retries.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy returns three attempts with 500ms..8s exponential
// backoff and full jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Initial:     500 * time.Millisecond,
		Max:         8 * time.Second,
		Multiplier:  2,
	}
}

// Backoff returns the jittered delay before the given retry (attempt is the
// number of attempts already made, starting at 1).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := p.Initial
	if base <= 0 {
		return 0
	}
	multiplier := p.Multiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	for i := 1; i < attempt; i++ {
		base = time.Duration(float64(base) * multiplier)
		if p.Max > 0 && base > p.Max {
			base = p.Max
			break
		}
	}
	// Full jitter: uniform in [0, base].
	jitterMs := rand.Int64N(base.Milliseconds() + 1) // #nosec G404 -- non-cryptographic jitter
	return time.Duration(jitterMs) * time.Millisecond
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. It returns the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, retryable func(error) bool, fn func(attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(attempt)
		if err == nil || attempt >= maxAttempts || !retryable(err) {
			return attempt, err
		}
		if delay := p.Backoff(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return attempt, errors.Join(err, ctx.Err())
			case <-timer.C:
			}
		}
	}
}

// IsExpiryClass reports whether err means the upload URL was no longer
// accepted: storage answered 401/403 or the URL was reported expired.
func IsExpiryClass(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, services.ErrAuthorization)
}
