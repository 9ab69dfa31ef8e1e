// Package breaker implements a per-provider circuit breaker with two
// states — CLOSED and OPEN — and implicit probe semantics on cooldown
// expiry (no explicit HALF_OPEN state).
package breaker

import (
	"sync"
	"time"
)

type state int

const (
	closed state = iota
	open
)

// Config holds the failure threshold and cooldown for one provider's
// breaker.
type Config struct {
	Threshold int
	Cooldown  time.Duration
}

// RemoteDefault is the default configuration for remote providers.
var RemoteDefault = Config{Threshold: 3, Cooldown: 60 * time.Second}

// LocalDefault is the default configuration for the local/dummy backend.
var LocalDefault = Config{Threshold: 5, Cooldown: 30 * time.Second}

// Breaker is a single provider's circuit breaker.
type Breaker struct {
	mu              sync.Mutex
	cfg             Config
	st              state
	failureCount    int
	lastFailureTime time.Time
}

// New creates a Breaker in the CLOSED state.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, st: closed}
}

// Allow reports whether a call may proceed now. In OPEN, the first Allow
// call after the cooldown has elapsed is itself the probe: it returns true,
// and the caller's subsequent RecordSuccess/RecordFailure decides the next
// state.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.st {
	case closed:
		return true
	default: // open
		if b.lastFailureTime.IsZero() {
			return false
		}
		return time.Since(b.lastFailureTime) > b.cfg.Cooldown
	}
}

// RecordSuccess marks a success: resets the failure count and closes the
// breaker (a no-op if already CLOSED).
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.st = closed
	b.failureCount = 0
}

// RecordFailure marks a failure: increments the counter and, once it
// reaches the threshold, opens the breaker and stamps the failure time. A
// failure recorded while already OPEN refreshes the failure time, so a
// failed probe keeps the breaker open for another full cooldown.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = time.Now()

	if b.st == closed && b.failureCount >= b.cfg.Threshold {
		b.st = open
	}
}

// State returns "closed" or "open" for diagnostics and metrics.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.st == open {
		return "open"
	}
	return "closed"
}
