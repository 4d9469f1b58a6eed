package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy configures the backoff retry executor.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Subsequent delays
	// double: BaseDelay, 2*BaseDelay, 4*BaseDelay, ...
	// Default: 1 second
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns the default retry policy (3 attempts, 1s base).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	return p
}

// Operation is a single asynchronous attempt that may fail.
type Operation[T any] func(ctx context.Context) (T, error)

// Execute runs op, retrying transient failures with exponential backoff.
//
// Failures carrying an HTTP status in [400, 500) are client errors and are
// returned immediately without retrying. Everything else (network failures,
// timeouts, 5xx, unclassified errors) is retried until MaxAttempts is
// reached, waiting BaseDelay * 2^(attempt-1) between attempts. The wait is
// cooperative and aborts when ctx is canceled.
//
// Each call is an independent retry sequence; concurrent calls share no
// backoff state. The executor knows nothing about fallback data; handling
// the final error belongs to the caller.
func Execute[T any](ctx context.Context, policy RetryPolicy, op Operation[T]) (T, error) {
	policy = policy.withDefaults()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = time.Hour
	bo.MaxElapsedTime = 0
	bo.Reset()

	var result T
	attempt := func() error {
		v, err := op(ctx)
		if err != nil {
			if isClientError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = v
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(policy.MaxAttempts-1)), ctx)
	if err := backoff.Retry(attempt, b); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// isClientError reports whether err carries an HTTP 4xx status.
// Retrying a malformed or rejected request cannot succeed.
func isClientError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusBadRequest && statusErr.StatusCode < http.StatusInternalServerError
	}
	return false
}
