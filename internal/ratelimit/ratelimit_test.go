package ratelimit

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rajatg17/ai-inference-gateway/internal/faststore"
)

func newTestLimiter(t *testing.T, threshold int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := faststore.NewRedisFromURL(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisFromURL: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s, threshold), mr
}

// TestAllowWithinThreshold verifies requests up to the threshold succeed.
func TestAllowWithinThreshold(t *testing.T) {
	l, _ := newTestLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Allow(ctx, "tenant-1", "cred-1"); err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
	}
}

// TestRejectsOverThreshold verifies the (threshold+1)th request in the same
// window fails with ErrRateLimited.
func TestRejectsOverThreshold(t *testing.T) {
	l, _ := newTestLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Allow(ctx, "tenant-1", "cred-1"); err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
	}
	if err := l.Allow(ctx, "tenant-1", "cred-1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("4th request err = %v, want ErrRateLimited", err)
	}
}

// TestWindowResetsOnNextMinute verifies a new minute window gets a fresh
// quota once the bucket TTL expires.
func TestWindowResetsOnNextMinute(t *testing.T) {
	l, mr := newTestLimiter(t, 1)
	ctx := context.Background()

	if err := l.Allow(ctx, "tenant-1", "cred-1"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := l.Allow(ctx, "tenant-1", "cred-1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second request err = %v, want ErrRateLimited", err)
	}

	mr.FastForward(windowTTL)

	if err := l.Allow(ctx, "tenant-1", "cred-1"); err != nil {
		t.Fatalf("request after window reset: %v", err)
	}
}

// TestBucketsAreIndependentPerCredential verifies separate credentials do
// not share a quota bucket.
func TestBucketsAreIndependentPerCredential(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	ctx := context.Background()

	if err := l.Allow(ctx, "tenant-1", "cred-A"); err != nil {
		t.Fatalf("cred-A: %v", err)
	}
	if err := l.Allow(ctx, "tenant-1", "cred-B"); err != nil {
		t.Fatalf("cred-B should have its own bucket: %v", err)
	}
}

// TestUnavailableWhenStoreDown verifies the limiter fails closed
// (ErrUnavailable), never silently allowing, when the fast store cannot be
// reached.
func TestUnavailableWhenStoreDown(t *testing.T) {
	l, mr := newTestLimiter(t, 10)
	mr.Close()

	if err := l.Allow(context.Background(), "tenant-1", "cred-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
