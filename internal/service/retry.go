package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/iliyamo/turf-booking/internal/repository"
)

const (
	txAttempts   = 3
	retryBackoff = 20 * time.Millisecond
)

// withRetry re-runs fn while it fails with a retryable store error
// (deadlock or lock wait timeout), at most attempts times in total.  Any
// other outcome is returned as is.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryBackoff), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(func() error {
		err := fn()
		if err != nil && !errors.Is(err, repository.ErrRetryable) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
