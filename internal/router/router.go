// Package router picks the backend for a model name, gates it behind a
// per-provider circuit breaker, and constructs remote backends lazily so
// missing credentials for one provider never crash the process.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rajatg17/ai-inference-gateway/internal/backend"
	"github.com/rajatg17/ai-inference-gateway/internal/breaker"
)

// ErrBreakerOpen is returned when the chosen provider's breaker rejects the
// call.
var ErrBreakerOpen = errors.New("router: provider breaker open")

// Factory lazily constructs a backend for a remote provider. It may return
// an error if the provider is not configured (e.g. missing API key), in
// which case the router falls back to the configured fallback backend.
type Factory func() (backend.Backend, error)

// Route is the resolved destination for one request.
type Route struct {
	Backend  backend.Backend
	Breaker  *breaker.Breaker
	Provider string
}

// Router dispatches by model-name prefix.
type Router struct {
	mu       sync.Mutex
	log      *slog.Logger
	fallback backend.Backend

	// Lazily-constructed remote backends, guarded by mu so two concurrent
	// requests never build two clients for the same provider.
	built     map[string]backend.Backend
	factories map[string]Factory
	breakers  map[string]*breaker.Breaker

	// prefixes maps a model prefix to the provider name that serves it.
	prefixes []prefixRoute
}

type prefixRoute struct {
	prefix   string
	provider string
}

// New creates a Router. fallback is used whenever a prefix-matched remote
// provider is not configured; it is also the destination for any model that
// matches no prefix.
func New(fallback backend.Backend, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		log:      log,
		fallback: fallback,
		built:    make(map[string]backend.Backend),
		factories: make(map[string]Factory),
		breakers: make(map[string]*breaker.Breaker),
	}
}

// Register binds a model prefix to a provider name, its lazy factory, and
// breaker configuration. Call once per remote provider at startup.
func (r *Router) Register(prefix, provider string, cfg breaker.Config, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes = append(r.prefixes, prefixRoute{prefix: prefix, provider: provider})
	r.factories[provider] = factory
	r.breakers[provider] = breaker.New(cfg)
}

// RegisterFallbackBreaker sets the breaker configuration used for the
// fallback/local provider slot, named "local".
func (r *Router) RegisterFallbackBreaker(cfg breaker.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers["local"] = breaker.New(cfg)
}

// Resolve picks the backend and breaker for model, per prefix policy:
//   - a registered prefix match routes to that provider, with the fallback
//     backend substituted if the provider is unconfigured;
//   - no prefix match routes to the fallback backend (provider "local"), no
//     further fallback.
//
// If the chosen provider's breaker is open, Resolve returns ErrBreakerOpen
// and the caller must increment a rejection counter and surface 503 — per
// policy this router never silently consults a fallback for a breaker that
// is open, only for a provider that was never configured.
func (r *Router) Resolve(model string) (*Route, error) {
	provider, factory := r.matchPrefix(model)

	if factory == nil {
		return r.resolveNamed("local")
	}

	r.mu.Lock()
	b, ok := r.built[provider]
	if !ok {
		built, err := factory()
		if err != nil {
			r.mu.Unlock()
			r.log.WarnContext(context.Background(), "router_provider_unconfigured",
				slog.String("provider", provider), slog.String("error", err.Error()))
			return r.resolveNamed("local")
		}
		r.built[provider] = built
		b = built
	}
	br := r.breakers[provider]
	r.mu.Unlock()

	if !br.Allow() {
		return nil, fmt.Errorf("%w: provider=%s", ErrBreakerOpen, provider)
	}

	return &Route{Backend: b, Breaker: br, Provider: provider}, nil
}

func (r *Router) resolveNamed(provider string) (*Route, error) {
	r.mu.Lock()
	br := r.breakers[provider]
	r.mu.Unlock()

	if br != nil && !br.Allow() {
		return nil, fmt.Errorf("%w: provider=%s", ErrBreakerOpen, provider)
	}
	return &Route{Backend: r.fallback, Breaker: br, Provider: provider}, nil
}

func (r *Router) matchPrefix(model string) (provider string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.prefixes {
		if strings.HasPrefix(model, p.prefix) {
			return p.provider, r.factories[p.provider]
		}
	}
	return "", nil
}
