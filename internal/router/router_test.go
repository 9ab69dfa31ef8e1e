package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rajatg17/ai-inference-gateway/internal/backend"
	"github.com/rajatg17/ai-inference-gateway/internal/breaker"
)

type fakeBackend struct {
	name string
}

func (f *fakeBackend) Predict(_ context.Context, prompt, _ string, _ float64, _ int) (string, error) {
	return f.name + ":" + prompt, nil
}

// TestResolveNoPrefixMatchGoesToFallback verifies a model matching no
// registered prefix routes to the fallback backend under provider "local".
func TestResolveNoPrefixMatchGoesToFallback(t *testing.T) {
	fallback := &fakeBackend{name: "local"}
	r := New(fallback, nil)
	r.RegisterFallbackBreaker(breaker.LocalDefault)

	route, err := r.Resolve("dummy-model")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if route.Provider != "local" || route.Backend != backend.Backend(fallback) {
		t.Fatalf("route = %+v, want local/fallback", route)
	}
}

// TestResolvePrefixMatchRoutesToProvider verifies a "gpt-" model routes to
// the registered openai factory.
func TestResolvePrefixMatchRoutesToProvider(t *testing.T) {
	fallback := &fakeBackend{name: "local"}
	r := New(fallback, nil)
	r.RegisterFallbackBreaker(breaker.LocalDefault)

	openai := &fakeBackend{name: "openai"}
	r.Register("gpt-", "openai", breaker.RemoteDefault, func() (backend.Backend, error) {
		return openai, nil
	})

	route, err := r.Resolve("gpt-4")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if route.Provider != "openai" {
		t.Fatalf("provider = %q, want openai", route.Provider)
	}
}

// TestResolveUnconfiguredProviderFallsBackToLocal verifies a factory error
// (missing credentials) routes to the fallback instead of failing the
// request.
func TestResolveUnconfiguredProviderFallsBackToLocal(t *testing.T) {
	fallback := &fakeBackend{name: "local"}
	r := New(fallback, nil)
	r.RegisterFallbackBreaker(breaker.LocalDefault)
	r.Register("gemini-", "gemini", breaker.RemoteDefault, func() (backend.Backend, error) {
		return nil, errors.New("no api key configured")
	})

	route, err := r.Resolve("gemini-pro")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if route.Provider != "local" {
		t.Fatalf("provider = %q, want local fallback", route.Provider)
	}
}

// TestResolveRejectsWhenBreakerOpen verifies an open breaker for the chosen
// provider causes Resolve to fail with ErrBreakerOpen rather than
// consulting a fallback.
func TestResolveRejectsWhenBreakerOpen(t *testing.T) {
	fallback := &fakeBackend{name: "local"}
	r := New(fallback, nil)
	r.RegisterFallbackBreaker(breaker.LocalDefault)

	cfg := breaker.Config{Threshold: 1, Cooldown: time.Hour}
	r.Register("gpt-", "openai", cfg, func() (backend.Backend, error) {
		return &fakeBackend{name: "openai"}, nil
	})

	// Force the breaker open by resolving once and recording a failure.
	route, err := r.Resolve("gpt-4")
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	route.Breaker.RecordFailure()

	if _, err := r.Resolve("gpt-4"); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("err = %v, want ErrBreakerOpen", err)
	}
}

// TestResolveBuildsProviderOnlyOnce verifies the lazy factory is invoked at
// most once across repeated Resolve calls for the same provider.
func TestResolveBuildsProviderOnlyOnce(t *testing.T) {
	fallback := &fakeBackend{name: "local"}
	r := New(fallback, nil)
	r.RegisterFallbackBreaker(breaker.LocalDefault)

	calls := 0
	r.Register("gpt-", "openai", breaker.RemoteDefault, func() (backend.Backend, error) {
		calls++
		return &fakeBackend{name: "openai"}, nil
	})

	for i := 0; i < 5; i++ {
		if _, err := r.Resolve("gpt-4"); err != nil {
			t.Fatalf("Resolve %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("factory called %d times, want 1", calls)
	}
}
