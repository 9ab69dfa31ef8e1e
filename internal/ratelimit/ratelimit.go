// Package ratelimit enforces a fixed per-minute request quota per
// (tenant, credential) pair using atomic counters in the shared fast store.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rajatg17/ai-inference-gateway/internal/faststore"
)

// ErrRateLimited is returned when the caller has exceeded the per-minute
// threshold for the current window.
var ErrRateLimited = errors.New("ratelimit: rate limit exceeded")

// ErrUnavailable is returned when the fast store cannot be reached — the
// request must be treated as unavailable, never as silently allowed.
var ErrUnavailable = errors.New("ratelimit: fast store unavailable")

const (
	windowSeconds = 60
	windowTTL     = windowSeconds * time.Second
)

// DefaultThreshold is the default per-(tenant,credential)-per-minute limit.
const DefaultThreshold = 10

// Limiter enforces the fixed-window quota.
type Limiter struct {
	store     faststore.Store
	threshold int64
}

// New creates a Limiter. threshold <= 0 uses DefaultThreshold.
func New(store faststore.Store, threshold int) *Limiter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Limiter{store: store, threshold: int64(threshold)}
}

// Allow checks and records one request against the (tenantID, credentialID)
// bucket for the current minute. Returns ErrRateLimited once the threshold
// is exceeded, or ErrUnavailable if the fast store cannot be reached.
func (l *Limiter) Allow(ctx context.Context, tenantID, credentialID string) error {
	minute := time.Now().Unix() / windowSeconds
	key := fmt.Sprintf("rl:%s:%s:%d", tenantID, credentialID, minute)

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		if errors.Is(err, faststore.ErrUnavailable) {
			return ErrUnavailable
		}
		return err
	}

	if count == 1 {
		if err := l.store.Expire(ctx, key, windowTTL); err != nil {
			if errors.Is(err, faststore.ErrUnavailable) {
				return ErrUnavailable
			}
			return err
		}
	}

	if count > l.threshold {
		return ErrRateLimited
	}
	return nil
}
