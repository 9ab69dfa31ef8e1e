package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rajatg17/ai-inference-gateway/internal/faststore"
)

func newTestSingleFlight(t *testing.T) *SingleFlight {
	t.Helper()
	mr := miniredis.RunT(t)
	fs, err := faststore.NewRedisFromURL(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisFromURL: %v", err)
	}
	t.Cleanup(func() { _ = fs.Close() })
	c := New(fs, nil)
	return NewSingleFlight(c, fs, nil)
}

// TestSingleFlightCachesResult verifies the leader writes the cache so a
// second call for the same key observes a hit without invoking produce.
func TestSingleFlightCachesResult(t *testing.T) {
	sf := newTestSingleFlight(t)
	ctx := context.Background()

	var calls int32
	produce := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("result"), nil
	}

	body, cached, err := sf.Run(ctx, "cache:k1", time.Minute, produce)
	if err != nil || cached {
		t.Fatalf("first call: body=%q cached=%v err=%v", body, cached, err)
	}

	body, cached, err = sf.Run(ctx, "cache:k1", time.Minute, produce)
	if err != nil || !cached || string(body) != "result" {
		t.Fatalf("second call: body=%q cached=%v err=%v", body, cached, err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("produce called %d times, want 1", calls)
	}
}

// TestSingleFlightReleasesLockOnFailure verifies a failing producer releases
// the lock so the next attempt can try fresh rather than waiting out the TTL.
func TestSingleFlightReleasesLockOnFailure(t *testing.T) {
	sf := newTestSingleFlight(t)
	ctx := context.Background()

	failing := func(ctx context.Context) ([]byte, error) {
		return nil, context.DeadlineExceeded
	}
	if _, _, err := sf.Run(ctx, "cache:k2", time.Minute, failing); err == nil {
		t.Fatal("expected producer error to propagate")
	}

	ok, err := sf.fs.SetNX(ctx, "lock:cache:k2", []byte("1"), LockTTL)
	if err != nil {
		t.Fatalf("SetNX: %v", err)
	}
	if !ok {
		t.Fatal("expected lock to have been released after producer failure")
	}
}

// TestSingleFlightSuppressesDuplicateProducers verifies that under N
// concurrent cold-cache callers, the producer runs at most once (the leader
// wins, followers observe the published value).
func TestSingleFlightSuppressesDuplicateProducers(t *testing.T) {
	sf := newTestSingleFlight(t)
	ctx := context.Background()

	var calls int32
	var wg sync.WaitGroup
	results := make([][]byte, 5)

	// Serialize leader acquisition by running produce() synchronously under
	// a tiny artificial delay, then let followers race in.
	slowProduce := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return []byte("computed"), nil
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			body, _, err := sf.Run(ctx, "cache:k3", time.Minute, slowProduce)
			if err == nil {
				results[idx] = body
			}
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("producer ran %d times, want exactly 1", n)
	}
	for i, r := range results {
		if string(r) != "computed" {
			t.Fatalf("result %d = %q, want computed", i, r)
		}
	}
}
