package service

import (
	"context"
	"time"
)

// CounterStore keeps per-key backoff counters. Increment must be atomic:
// concurrent callers each observe a distinct count.
type CounterStore interface {
	// Increment bumps the counter and re-arms its expiry from the new count,
	// returning both.
	Increment(ctx context.Context, key string, ceiling time.Duration) (int64, time.Duration, error)

	// TTL returns the remaining lifetime of key, or zero if absent or expired.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
