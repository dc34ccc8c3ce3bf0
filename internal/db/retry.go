package db

import (
	"context"
	"time"

	"github.com/jackc/pgerrcode"
)

var retryDelays = []time.Duration{50 * time.Millisecond, 200 * time.Millisecond, 500 * time.Millisecond}

// IsRetryable reports whether err is a serialization failure or deadlock.
func IsRetryable(err error) bool {
	return hasCode(err, pgerrcode.SerializationFailure) || hasCode(err, pgerrcode.DeadlockDetected)
}

// Retry runs fn again after a short delay while it fails with a retryable error.
func Retry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; ; i++ {
		err = fn()
		if err == nil || !IsRetryable(err) || i >= len(retryDelays) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelays[i]):
		}
	}
}
