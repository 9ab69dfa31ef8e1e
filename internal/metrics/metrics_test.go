package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordRequestIncrementsCounterAndObservesLatency verifies
// inference_requests_total and inference_request_latency_seconds are both
// updated for the same tenant.
func TestRecordRequestIncrementsCounterAndObservesLatency(t *testing.T) {
	r := New()
	r.RecordRequest("tenant-1", "ok", 0.05)

	got := testutil.ToFloat64(r.requestsTotal.WithLabelValues("tenant-1", "ok"))
	if got != 1 {
		t.Fatalf("requestsTotal = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.requestLatency); n != 1 {
		t.Fatalf("requestLatency series count = %d, want 1", n)
	}
}

// TestCacheHitAndMissAreIndependentPerTenant verifies cache hit/miss
// counters track separate tenants independently.
func TestCacheHitAndMissAreIndependentPerTenant(t *testing.T) {
	r := New()
	r.CacheHit("tenant-a")
	r.CacheHit("tenant-a")
	r.CacheMiss("tenant-b")

	if got := testutil.ToFloat64(r.cacheHits.WithLabelValues("tenant-a")); got != 2 {
		t.Fatalf("cacheHits[tenant-a] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.cacheMisses.WithLabelValues("tenant-b")); got != 1 {
		t.Fatalf("cacheMisses[tenant-b] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.cacheHits.WithLabelValues("tenant-b")); got != 0 {
		t.Fatalf("cacheHits[tenant-b] = %v, want 0", got)
	}
}

// TestRateLimitHitIncrementsPerTenant verifies the rate limit counter.
func TestRateLimitHitIncrementsPerTenant(t *testing.T) {
	r := New()
	r.RateLimitHit("tenant-1")

	if got := testutil.ToFloat64(r.rateLimitHits.WithLabelValues("tenant-1")); got != 1 {
		t.Fatalf("rateLimitHits = %v, want 1", got)
	}
}

// TestRecordErrorLabelsByType verifies inference_errors_total separates
// counts by error_type for the same tenant.
func TestRecordErrorLabelsByType(t *testing.T) {
	r := New()
	r.RecordError("tenant-1", "rate_limited")
	r.RecordError("tenant-1", "breaker_open")
	r.RecordError("tenant-1", "rate_limited")

	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("tenant-1", "rate_limited")); got != 2 {
		t.Fatalf("errorsTotal[rate_limited] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("tenant-1", "breaker_open")); got != 1 {
		t.Fatalf("errorsTotal[breaker_open] = %v, want 1", got)
	}
}

// TestProviderFailureAndRejectionAreSeparateCounters verifies
// provider_failures_total and provider_rejections_total track independently
// for the same provider.
func TestProviderFailureAndRejectionAreSeparateCounters(t *testing.T) {
	r := New()
	r.ProviderFailure("openai")
	r.ProviderRejection("openai")
	r.ProviderRejection("openai")

	if got := testutil.ToFloat64(r.providerFailures.WithLabelValues("openai")); got != 1 {
		t.Fatalf("providerFailures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.providerRejections.WithLabelValues("openai")); got != 2 {
		t.Fatalf("providerRejections = %v, want 2", got)
	}
}

// TestHandlerIsNotNil verifies New wires a usable fasthttp handler.
func TestHandlerIsNotNil(t *testing.T) {
	r := New()
	if r.Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}
