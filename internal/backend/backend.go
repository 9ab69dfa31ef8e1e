// Package backend defines the uniform prediction contract implemented by
// every model backend, and the deterministic dummy/local variants used in
// tests and as the default no-prefix-match destination.
package backend

import (
	"context"
	"fmt"
	"time"
)

// Backend is the minimal, uniform contract every model backend implements.
// It is deliberately narrow — a single operation — so the router stays
// trivial regardless of how many providers exist behind it.
type Backend interface {
	Predict(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error)
}

type tenantKey struct{}

// WithTenant attaches the requesting tenant to ctx, so backends that need
// tenant-scoped determinism (the dummy backend's echo format) can read it
// without widening the Predict signature for every other backend.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantFromContext returns the tenant attached by WithTenant, or "" if none.
func TenantFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tenantKey{}).(string)
	return v
}

// Dummy is the default no-prefix-match backend: never fails, and echoes the
// prompt tagged with the requesting tenant. It anchors tests and requires no
// credentials, so the gateway always has at least one working destination.
type Dummy struct{}

// NewDummy creates a Dummy backend.
func NewDummy() *Dummy { return &Dummy{} }

func (d *Dummy) Predict(ctx context.Context, prompt, _ string, _ float64, _ int) (string, error) {
	tenant := TenantFromContext(ctx)
	return fmt.Sprintf("[tenant=%s] echo: %s", tenant, prompt), nil
}

// Local is an alternative deterministic backend (selected via
// INFERENCE_BACKEND=local) that simulates a small fixed processing delay
// instead of echoing — grounded in the original implementation's separate
// local backend variant.
type Local struct {
	// Delay is the simulated processing time. Zero disables the delay.
	Delay time.Duration
}

// NewLocal creates a Local backend with the default simulated delay.
func NewLocal() *Local {
	return &Local{Delay: 200 * time.Millisecond}
}

func (l *Local) Predict(ctx context.Context, prompt, model string, _ float64, _ int) (string, error) {
	if l.Delay > 0 {
		select {
		case <-time.After(l.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return fmt.Sprintf("[local: %s] processed: %s", model, prompt), nil
}

var (
	_ Backend = (*Dummy)(nil)
	_ Backend = (*Local)(nil)
)
