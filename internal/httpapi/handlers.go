package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/rajatg17/ai-inference-gateway/internal/auth"
	"github.com/rajatg17/ai-inference-gateway/internal/backend"
	"github.com/rajatg17/ai-inference-gateway/internal/cache"
	gwlogger "github.com/rajatg17/ai-inference-gateway/internal/logger"
	"github.com/rajatg17/ai-inference-gateway/internal/ratelimit"
	"github.com/rajatg17/ai-inference-gateway/internal/router"
	"github.com/rajatg17/ai-inference-gateway/pkg/apierr"
)

const (
	defaultModel       = "dummy-model"
	defaultMaxTokens   = 100
	defaultTemperature = 0.0
)

type predictRequest struct {
	Prompt       string  `json:"prompt"`
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	CacheBypass  bool    `json:"cache_bypass"`
}

type predictResponse struct {
	Output string `json:"output"`
}

func (s *Server) handleHealthz(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(ctx *fasthttp.RequestCtx) {
	dbStatus, redisStatus := "ok", "ok"
	ready := true

	if s.dbPing != nil {
		if err := s.dbPing(); err != nil {
			dbStatus = "unreachable"
			ready = false
		}
	}
	if s.storePing != nil {
		if err := s.storePing(); err != nil {
			redisStatus = "unreachable"
			ready = false
		}
	}

	status := "ready"
	code := fasthttp.StatusOK
	if !ready {
		status = "not ready"
		code = fasthttp.StatusOK
	}
	writeJSON(ctx, code, map[string]string{"status": status, "db": dbStatus, "redis": redisStatus})
}

func (s *Server) handleMetrics(ctx *fasthttp.RequestCtx) {
	s.metrics.Handler()(ctx)
}

func (s *Server) handlePredict(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	requestID := requestIDFromCtx(ctx)
	log := s.log.With(slog.String("request_id", requestID))

	authCtx, err := s.authenticate(ctx)
	if err != nil {
		apierr.WriteUnauthenticated(ctx)
		return
	}

	req, err := parsePredictRequest(ctx)
	if err != nil {
		apierr.WriteInvalidRequest(ctx, err.Error())
		return
	}

	baseCtx := context.Background()

	if err := s.limiter.Allow(baseCtx, authCtx.TenantID, authCtx.CredentialID); err != nil {
		if errors.Is(err, ratelimit.ErrRateLimited) {
			s.metrics.RateLimitHit(authCtx.TenantID)
			apierr.WriteRateLimited(ctx)
			return
		}
		log.Warn("rate_limiter_unavailable", "error", err.Error())
		s.metrics.RecordError(authCtx.TenantID, "rate_limiter_unavailable")
		apierr.WriteInternalError(ctx)
		return
	}

	params := cache.Params{Temperature: req.Temperature, MaxTokens: req.MaxTokens}
	key := cache.Fingerprint(authCtx.TenantID, req.Model, req.Prompt, params)

	var provider string
	produce := func(ctx context.Context) ([]byte, error) {
		body, p, err := s.produce(ctx, authCtx, req)
		provider = p
		return body, err
	}

	var body []byte
	var cached bool
	if req.CacheBypass {
		body, err = produce(baseCtx)
	} else {
		body, cached, err = s.singleFlight.Run(baseCtx, key, s.cacheTTL, produce)
	}

	status := "ok"
	defer func() {
		s.metrics.RecordRequest(authCtx.TenantID, status, time.Since(start).Seconds())
	}()

	if cached {
		s.metrics.CacheHit(authCtx.TenantID)
	} else if !req.CacheBypass {
		s.metrics.CacheMiss(authCtx.TenantID)
	}

	if err != nil {
		status = classifyError(err)
		s.writeProduceError(ctx, err)
		s.logAudit(authCtx, req, provider, status, cached, time.Since(start))
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(body)
	s.logAudit(authCtx, req, provider, status, cached, time.Since(start))
}

// produce resolves a backend, gates it behind its breaker, calls Predict,
// and records the outcome on the breaker and provider metrics. It returns
// the resolved provider name alongside the body so the caller can audit-log
// and metric-label by provider even though the Producer contract it backs
// (cache.Producer) only carries a body and an error.
func (s *Server) produce(ctx context.Context, authCtx *auth.Context, req predictRequest) ([]byte, string, error) {
	route, err := s.router.Resolve(req.Model)
	if err != nil {
		if errors.Is(err, router.ErrBreakerOpen) {
			s.metrics.ProviderRejection(providerFromErr(err))
		}
		return nil, providerFromErr(err), err
	}

	predictCtx := backend.WithTenant(ctx, authCtx.TenantID)
	out, err := route.Backend.Predict(predictCtx, req.Prompt, req.Model, req.Temperature, req.MaxTokens)
	if err != nil {
		route.Breaker.RecordFailure()
		s.metrics.ProviderFailure(route.Provider)
		return nil, route.Provider, err
	}
	route.Breaker.RecordSuccess()

	body, err := json.Marshal(predictResponse{Output: out})
	return body, route.Provider, err
}

func (s *Server) authenticate(ctx *fasthttp.RequestCtx) (*auth.Context, error) {
	header := string(ctx.Request.Header.Peek("Authorization"))
	return s.auth.Authenticate(context.Background(), header)
}

func parsePredictRequest(ctx *fasthttp.RequestCtx) (predictRequest, error) {
	req := predictRequest{
		Model:       defaultModel,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	body := ctx.PostBody()
	if len(body) == 0 {
		return req, errors.New("request body must be valid JSON")
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, errors.New("request body must be valid JSON")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return req, errors.New("prompt is required")
	}
	if req.Model == "" {
		req.Model = defaultModel
	}
	return req, nil
}

func (s *Server) writeProduceError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, router.ErrBreakerOpen):
		apierr.WriteBreakerOpen(ctx)
	default:
		var provErr *backend.ProviderError
		if errors.As(err, &provErr) {
			apierr.WriteProviderError(ctx, provErr.Message)
			return
		}
		apierr.WriteProviderError(ctx, "upstream provider request failed")
	}
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, router.ErrBreakerOpen):
		return "breaker_open"
	default:
		return "provider_error"
	}
}

func providerFromErr(err error) string {
	// ErrBreakerOpen is always wrapped as "router: provider breaker open: provider=<name>".
	msg := err.Error()
	const marker = "provider="
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return "unknown"
}

func (s *Server) logAudit(authCtx *auth.Context, req predictRequest, provider, status string, cached bool, dur time.Duration) {
	if s.auditLog == nil {
		return
	}
	statusCode := uint16(fasthttp.StatusOK)
	switch status {
	case "ok":
	case "breaker_open":
		statusCode = fasthttp.StatusServiceUnavailable
	default:
		statusCode = fasthttp.StatusInternalServerError
	}
	s.auditLog.Log(gwlogger.RequestLog{
		ID:           uuid.New(),
		TenantID:     authCtx.TenantID,
		CredentialID: authCtx.CredentialID,
		Model:        req.Model,
		Provider:     provider,
		Cached:       cached,
		LatencyMs:    uint32(dur.Milliseconds()),
		Status:       statusCode,
		CreatedAt:    time.Now(),
	})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	data, _ := json.Marshal(v)
	ctx.SetBody(data)
}
