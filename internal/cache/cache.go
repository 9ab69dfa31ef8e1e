// Package cache implements the response cache: a read-through store over a
// faststore.Store, a deterministic fingerprint builder, and the
// cross-process single-flight lock that suppresses duplicate concurrent
// upstream calls on a cold key.
package cache

import (
	"context"
	"time"
)

// Cache is the read-through response cache contract.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
