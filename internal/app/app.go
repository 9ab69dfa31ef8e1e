// Package app wires up all subsystems and owns the application lifecycle.
//
// Startup order:
//  1. initInfra     — credential store (Postgres) and fast store (Redis)
//  2. initServices  — auth, rate limiter, response cache + single-flight,
//     metrics registry, audit logger
//  3. initRouter    — per-provider backends behind circuit breakers
//  4. initServer    — HTTP surface wiring all of the above
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rajatg17/ai-inference-gateway/internal/auth"
	npCache "github.com/rajatg17/ai-inference-gateway/internal/cache"
	"github.com/rajatg17/ai-inference-gateway/internal/config"
	"github.com/rajatg17/ai-inference-gateway/internal/credstore"
	"github.com/rajatg17/ai-inference-gateway/internal/faststore"
	"github.com/rajatg17/ai-inference-gateway/internal/httpapi"
	"github.com/rajatg17/ai-inference-gateway/internal/logger"
	"github.com/rajatg17/ai-inference-gateway/internal/metrics"
	"github.com/rajatg17/ai-inference-gateway/internal/ratelimit"
	"github.com/rajatg17/ai-inference-gateway/internal/router"
	"github.com/rajatg17/ai-inference-gateway/internal/security"
)

// App owns all long-lived resources and exposes Run / Close.
type App struct {
	version string
	cfg     *config.Config
	baseCtx context.Context
	log     *slog.Logger

	creds *credstore.Store
	store faststore.Store

	authenticator *auth.Authenticator
	limiter       *ratelimit.Limiter
	singleFlight *npCache.SingleFlight
	rtr          *router.Router
	prom         *metrics.Registry
	auditLog     *logger.Logger
	auditSink    logger.AuditSink

	srv *httpapi.Server
}

// New initialises all subsystems and returns a ready-to-run App. All
// resources allocated here are released by Close.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, version string) (*App, error) {
	if ctx == nil {
		return nil, fmt.Errorf("app: context must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	a := &App{cfg: cfg, version: version, baseCtx: ctx, log: log}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"infra", a.initInfra},
		{"services", a.initServices},
		{"router", a.initRouter},
		{"server", a.initServer},
	}

	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("app: init %s: %w", s.name, err)
		}
	}

	return a, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or an error
// occurs. It closes the app gracefully when returning.
func (a *App) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.cfg.Port)

	a.log.Info("starting gateway",
		slog.String("version", a.version),
		slog.String("addr", addr),
		slog.String("inference_backend", a.cfg.InferenceBackend),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.srv.ListenAndServe(addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Close()
		return nil
	})

	return g.Wait()
}

// Close releases all resources in reverse-init order. Safe to call multiple
// times.
func (a *App) Close() {
	if a.auditLog != nil {
		if err := a.auditLog.Close(); err != nil {
			a.log.Error("audit logger close error", slog.String("error", err.Error()))
		}
		a.auditLog = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Error("fast store close error", slog.String("error", err.Error()))
		}
		a.store = nil
	}
	if a.creds != nil {
		a.creds.Close()
		a.creds = nil
	}
}

// connectFastStore dials Redis when url is set, mirroring the teacher's
// Cache.Mode selection; an empty url falls back to an in-process memory
// store for single-replica local/dev use.
func connectFastStore(ctx context.Context, url string) (faststore.Store, error) {
	if url == "" {
		return faststore.NewMemory(ctx), nil
	}
	return faststore.NewRedisFromURL(ctx, url)
}

func buildHasher(cfg *config.Config) *security.Hasher {
	return security.NewHasher(cfg.APIKeyPepper)
}

// redactURL replaces the userinfo portion of a URL with "***" for safe
// logging, e.g. "redis://:secret@localhost:6379" → "redis://***@localhost:6379".
func redactURL(raw string) string {
	for i, c := range raw {
		if c == '@' {
			for j := i - 1; j >= 0; j-- {
				if j+2 < len(raw) && raw[j:j+3] == "://" {
					return raw[:j+3] + "***" + raw[i:]
				}
			}
			return "***" + raw[i:]
		}
	}
	return raw
}
