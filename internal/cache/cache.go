// Package cache provides the TTL key-value store used to memoize AI
// grading verdicts. Two implementations exist: an in-process map for
// tests and single-shot runs, and a sqlite-backed store that survives
// restarts.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL key-value store. Get returns ok=false for missing or
// expired keys. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
