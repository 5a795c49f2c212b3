package db

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"gorm.io/gorm"
)

const retryBaseDelay = 50 * time.Millisecond

// WithTxRetry runs fn in a transaction, retrying with backoff when the
// database reports a deadlock or lock timeout. Any other error is returned
// after the first attempt.
func WithTxRetry(ctx context.Context, gdb *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}
	return retry.Do(
		func() error { return gdb.WithContext(ctx).Transaction(fn) },
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.RetryIf(IsRetryable),
		retry.Delay(retryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}
