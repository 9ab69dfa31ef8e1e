// Package faststore generalizes the primitive operations the gateway needs
// from a shared key/value store — the response cache, the single-flight
// lock, and the rate limiter all compose on top of this one seam instead of
// each wrapping Redis independently.
package faststore

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the underlying store cannot be reached.
// Callers on the hot path (rate limiting in particular) must treat this as
// a hard failure, not silently fail open.
var ErrUnavailable = errors.New("faststore: unavailable")

// Store is the minimal set of atomic operations the gateway needs from a
// shared key/value store.
type Store interface {
	// Get returns the value for key, or ok=false if absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Incr atomically increments the integer stored at key (creating it at
	// 0 first if absent) and returns the post-increment value.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets a TTL on an existing key. It is a no-op if the key is
	// absent.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// SetNX atomically sets key to value with the given TTL only if key
	// does not already exist. Returns true if the set happened (i.e. the
	// caller acquired the lock).
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Ping verifies connectivity to the underlying store.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error
}
