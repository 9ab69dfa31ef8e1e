package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rajatg17/ai-inference-gateway/internal/auth"
	"github.com/rajatg17/ai-inference-gateway/internal/backend"
	"github.com/rajatg17/ai-inference-gateway/internal/breaker"
	npCache "github.com/rajatg17/ai-inference-gateway/internal/cache"
	"github.com/rajatg17/ai-inference-gateway/internal/credstore"
	"github.com/rajatg17/ai-inference-gateway/internal/httpapi"
	"github.com/rajatg17/ai-inference-gateway/internal/logger"
	"github.com/rajatg17/ai-inference-gateway/internal/metrics"
	"github.com/rajatg17/ai-inference-gateway/internal/ratelimit"
	"github.com/rajatg17/ai-inference-gateway/internal/router"
)

// initInfra connects the credential store (Postgres, required — config.Load
// rejects an empty DSN before we reach here) and the fast store (Redis when
// REDIS_URL is set, otherwise an in-process memory store).
func (a *App) initInfra(ctx context.Context) error {
	a.log.Info("connecting to credential store")
	creds, err := credstore.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("credential store: %w", err)
	}
	a.creds = creds

	if a.cfg.RedisURL == "" {
		a.log.Info("fast store: in-process memory (no REDIS_URL set)")
	} else {
		a.log.Info("connecting to fast store", slog.String("url", redactURL(a.cfg.RedisURL)))
	}
	store, err := connectFastStore(ctx, a.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("fast store: %w", err)
	}
	a.store = store

	return nil
}

// initServices builds authentication, rate limiting, the response cache and
// its single-flight coordinator, the metrics registry, and the audit logger.
func (a *App) initServices(ctx context.Context) error {
	hasher := buildHasher(a.cfg)
	a.authenticator = auth.New(a.creds, hasher, a.log)

	a.limiter = ratelimit.New(a.store, a.cfg.RateLimit.RequestsPerMinute)

	respCache := npCache.New(a.store, a.log)
	a.singleFlight = npCache.NewSingleFlight(respCache, a.store, a.log)

	a.prom = metrics.New()

	var sink logger.AuditSink
	if a.cfg.ClickHouseDSN != "" {
		chSink, err := logger.NewClickHouseSink(ctx, a.cfg.ClickHouseDSN)
		if err != nil {
			return fmt.Errorf("clickhouse audit sink: %w", err)
		}
		sink = chSink
		a.auditSink = chSink
		a.log.Info("audit log sink: clickhouse")
	} else {
		a.log.Info("audit log sink: none (events logged via slog only)")
	}

	auditLog, err := logger.New(ctx, a.log, sink)
	if err != nil {
		return fmt.Errorf("audit logger: %w", err)
	}
	a.auditLog = auditLog

	return nil
}

// initRouter builds the fallback backend and registers a prefix route (with
// its own breaker) for each provider whose API key is configured. A provider
// whose key is empty is skipped — requests for its prefix fall through to
// the fallback backend per the router's resolution rule.
func (a *App) initRouter(ctx context.Context) error {
	var fallback backend.Backend
	switch a.cfg.InferenceBackend {
	case "local":
		fallback = backend.NewLocal()
	default:
		fallback = backend.NewDummy()
	}

	rtr := router.New(fallback, a.log)
	rtr.RegisterFallbackBreaker(breaker.Config{
		Threshold: a.cfg.CircuitBreaker.LocalThreshold,
		Cooldown:  a.cfg.CircuitBreaker.LocalCooldown,
	})

	remoteCfg := breaker.Config{
		Threshold: a.cfg.CircuitBreaker.RemoteThreshold,
		Cooldown:  a.cfg.CircuitBreaker.RemoteCooldown,
	}

	if key := a.cfg.OpenAI.APIKey; key != "" {
		rtr.Register("gpt-", "openai", remoteCfg, func() (backend.Backend, error) {
			return backend.NewOpenAI(key), nil
		})
		a.log.Info("provider registered", slog.String("provider", "openai"))
	}
	if key := a.cfg.Gemini.APIKey; key != "" {
		rtr.Register("gemini-", "gemini", remoteCfg, func() (backend.Backend, error) {
			return backend.NewGemini(ctx, key)
		})
		a.log.Info("provider registered", slog.String("provider", "gemini"))
	}
	if key := a.cfg.Anthropic.APIKey; key != "" {
		rtr.Register("claude-", "anthropic", remoteCfg, func() (backend.Backend, error) {
			return backend.NewAnthropic(key), nil
		})
		a.log.Info("provider registered", slog.String("provider", "anthropic"))
	}

	a.rtr = rtr

	return nil
}

// initServer assembles the HTTP surface from every subsystem built above.
func (a *App) initServer(_ context.Context) error {
	a.srv = httpapi.New(httpapi.Deps{
		Auth:         a.authenticator,
		Limiter:      a.limiter,
		SingleFlight: a.singleFlight,
		Router:       a.rtr,
		Metrics:      a.prom,
		AuditLog:     a.auditLog,
		Log:          a.log,
		DBPing:       func() error { return a.creds.Ping(a.baseCtx) },
		StorePing:    func() error { return a.store.Ping(a.baseCtx) },
		CacheTTL:     a.cfg.Cache.TTL,
		CORSOrigins:  a.cfg.CORSOrigins,
	})

	return nil
}
