package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rajatg17/ai-inference-gateway/internal/faststore"
)

// DefaultTTL is the default response-cache entry lifetime.
const DefaultTTL = 300 * time.Second

// Store is a Cache backed by a faststore.Store. Reads and writes degrade
// gracefully on store errors — a cache is an optimization, never a
// correctness dependency for the predict path itself. Write failures are
// logged; a read that fails with faststore.ErrUnavailable is treated as a
// miss without a log line, while other read errors are logged.
type Store struct {
	fs  faststore.Store
	log *slog.Logger
}

// New creates a Store. log may be nil (defaults to slog.Default()).
func New(fs faststore.Store, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{fs: fs, log: log}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok, err := s.fs.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, faststore.ErrUnavailable) {
			s.log.WarnContext(ctx, "cache_get_error", slog.String("error", err.Error()))
		}
		return nil, false
	}
	return v, ok
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.fs.Set(ctx, key, value, ttl); err != nil {
		s.log.WarnContext(ctx, "cache_set_error", slog.String("error", err.Error()))
		return nil
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.fs.Del(ctx, key)
}

var _ Cache = (*Store)(nil)
