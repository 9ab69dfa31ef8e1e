package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/rajatg17/ai-inference-gateway/internal/faststore"
)

// LockTTL bounds how long a single-flight lock may be held — the backstop
// that guarantees liveness if a leader crashes or stalls.
const LockTTL = 10 * time.Second

const (
	followerPollAttempts = 20
	followerPollInterval = 100 * time.Millisecond
)

// Producer computes the response body for a cache miss.
type Producer func(ctx context.Context) ([]byte, error)

// SingleFlight wraps a Cache with cross-process leader/follower
// coordination on a cold key, so that at most one producer per key runs at
// a time across the fleet.
type SingleFlight struct {
	cache Cache
	fs    faststore.Store
	log   *slog.Logger
}

// NewSingleFlight creates a SingleFlight. log may be nil.
func NewSingleFlight(c Cache, fs faststore.Store, log *slog.Logger) *SingleFlight {
	if log == nil {
		log = slog.Default()
	}
	return &SingleFlight{cache: c, fs: fs, log: log}
}

// Run executes the single-flight protocol for fingerprint key:
//  1. read(key); return the cached value on hit.
//  2. Attempt to acquire lock:key with SET NX EX 10.
//     - Leader: run produce(), write the result with ttl, release the lock
//       on every exit path (success or failure).
//     - Follower: poll read(key) up to 20 times over ~2s; return the value
//       if it appears, otherwise fall through and run produce() directly,
//       without the lock (the caller's breaker still protects the
//       upstream).
func (sf *SingleFlight) Run(ctx context.Context, key string, ttl time.Duration, produce Producer) (body []byte, cached bool, err error) {
	if v, ok := sf.cache.Get(ctx, key); ok {
		return v, true, nil
	}

	lockKey := "lock:" + key
	acquired, lockErr := sf.fs.SetNX(ctx, lockKey, []byte("1"), LockTTL)
	if lockErr != nil {
		sf.log.WarnContext(ctx, "singleflight_lock_error", slog.String("error", lockErr.Error()))
		acquired = false
	}

	if acquired {
		defer func() {
			if delErr := sf.fs.Del(ctx, lockKey); delErr != nil {
				sf.log.WarnContext(ctx, "singleflight_unlock_error", slog.String("error", delErr.Error()))
			}
		}()

		out, perr := produce(ctx)
		if perr != nil {
			return nil, false, perr
		}
		_ = sf.cache.Set(ctx, key, out, ttl)
		return out, false, nil
	}

	// Follower: wait and peek, then fall through without the lock.
	for i := 0; i < followerPollAttempts; i++ {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(followerPollInterval):
		}
		if v, ok := sf.cache.Get(ctx, key); ok {
			return v, false, nil
		}
	}

	out, perr := produce(ctx)
	if perr != nil {
		return nil, false, perr
	}
	return out, false, nil
}
