// Package httpapi wires the request-serving pipeline — authentication, rate
// limiting, response cache with single-flight coordination, provider
// routing, and metrics — behind a small fixed set of fasthttp routes.
package httpapi

import (
	"log/slog"
	"time"

	fasthttprouter "github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/rajatg17/ai-inference-gateway/internal/auth"
	"github.com/rajatg17/ai-inference-gateway/internal/cache"
	gwlogger "github.com/rajatg17/ai-inference-gateway/internal/logger"
	"github.com/rajatg17/ai-inference-gateway/internal/metrics"
	"github.com/rajatg17/ai-inference-gateway/internal/ratelimit"
	"github.com/rajatg17/ai-inference-gateway/internal/router"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Server holds every dependency the pipeline needs and exposes the
// assembled fasthttp handler.
type Server struct {
	auth         *auth.Authenticator
	limiter      *ratelimit.Limiter
	singleFlight *cache.SingleFlight
	router       *router.Router
	metrics      *metrics.Registry
	auditLog     *gwlogger.Logger
	log          *slog.Logger

	dbPing    func() error
	storePing func() error

	cacheTTL    time.Duration
	corsOrigins []string
}

// Deps bundles the constructor arguments for New.
type Deps struct {
	Auth         *auth.Authenticator
	Limiter      *ratelimit.Limiter
	SingleFlight *cache.SingleFlight
	Router       *router.Router
	Metrics      *metrics.Registry
	AuditLog     *gwlogger.Logger
	Log          *slog.Logger
	DBPing       func() error
	StorePing    func() error
	CacheTTL     time.Duration
	CORSOrigins  []string
}

// New builds a Server from Deps.
func New(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		auth:         d.Auth,
		limiter:      d.Limiter,
		singleFlight: d.SingleFlight,
		router:       d.Router,
		metrics:      d.Metrics,
		auditLog:     d.AuditLog,
		log:          log,
		dbPing:       d.DBPing,
		storePing:    d.StorePing,
		cacheTTL:     d.CacheTTL,
		corsOrigins:  d.CORSOrigins,
	}
}

// Handler assembles the full fasthttp handler: routes wrapped in the
// standard middleware chain.
func (s *Server) Handler() fasthttp.RequestHandler {
	r := fasthttprouter.New()

	r.GET("/healthz", s.handleHealthz)
	r.GET("/readyz", s.handleReadyz)
	r.POST("/v1/predict", s.handlePredict)
	r.GET("/metrics/", s.handleMetrics)

	return applyMiddleware(r.Handler,
		recovery,
		requestID,
		timing,
		corsHandler(s.corsOrigins),
		securityHeaders,
	)
}

// ListenAndServe starts the HTTP server on addr (e.g. ":8080").
func (s *Server) ListenAndServe(addr string) error {
	srv := &fasthttp.Server{
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv.ListenAndServe(addr)
}

func requestIDFromCtx(ctx *fasthttp.RequestCtx) string {
	if v, ok := ctx.UserValue(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func logger(ctx *fasthttp.RequestCtx) *slog.Logger {
	return slog.Default().With(slog.String("request_id", requestIDFromCtx(ctx)))
}
