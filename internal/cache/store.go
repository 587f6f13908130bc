package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key does not exist or a blocking pop times out.
var ErrMiss = errors.New("cache miss")

// Store exposes the shared data-store primitives the pipeline is built on:
// TTL key/value, counters, and the list operations backing the priority
// queue. The redis implementation is in redis.go; tests run against
// miniredis.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	Incr(ctx context.Context, key string) (int64, error)

	// AddIfAbsent atomically claims key for ttl and reports whether the claim
	// succeeded. This is the add-if-absent primitive the dedup check relies
	// on; there is no separate check step to race against.
	AddIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)

	LPush(ctx context.Context, key, value string) error
	LLen(ctx context.Context, key string) (int64, error)

	// BRPop blocks up to timeout waiting for an element on any of keys,
	// scanning them in the given order. Returns ErrMiss on timeout.
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) (key, value string, err error)
}
