// Package metrics provides a Prometheus metrics registry for the gateway,
// scoped to a private registry so multiple Registry instances never collide
// in tests. The /metrics HTTP handler is exposed via Handler().
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Registry holds the metric families the inference pipeline emits. Names
// and labels are fixed: tenant_id identifies the caller, provider identifies
// the backend a request was routed to.
type Registry struct {
	reg *prometheus.Registry

	// inference_requests_total{tenant_id,status}
	requestsTotal *prometheus.CounterVec

	// inference_request_latency_seconds{tenant_id}
	requestLatency *prometheus.HistogramVec

	// inference_cache_hits_total{tenant_id}
	cacheHits *prometheus.CounterVec

	// inference_cache_misses_total{tenant_id}
	cacheMisses *prometheus.CounterVec

	// inference_rate_limit_hits_total{tenant_id}
	rateLimitHits *prometheus.CounterVec

	// inference_errors_total{tenant_id,error_type}
	errorsTotal *prometheus.CounterVec

	// provider_failures_total{provider}
	providerFailures *prometheus.CounterVec

	// provider_rejections_total{provider}
	providerRejections *prometheus.CounterVec

	metricsHandler fasthttp.RequestHandler
}

// New builds a Registry with its own private prometheus.Registry and
// pre-built fasthttp handler.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	r := &Registry{
		reg: reg,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inference_requests_total",
				Help: "Total number of inference requests handled, by tenant and outcome status",
			},
			[]string{"tenant_id", "status"},
		),

		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inference_request_latency_seconds",
				Help:    "End-to-end inference request latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"tenant_id"},
		),

		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inference_cache_hits_total",
				Help: "Total response cache hits, by tenant",
			},
			[]string{"tenant_id"},
		),

		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inference_cache_misses_total",
				Help: "Total response cache misses, by tenant",
			},
			[]string{"tenant_id"},
		),

		rateLimitHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inference_rate_limit_hits_total",
				Help: "Total requests rejected by the rate limiter, by tenant",
			},
			[]string{"tenant_id"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inference_errors_total",
				Help: "Total request-handling errors, by tenant and error type",
			},
			[]string{"tenant_id", "error_type"},
		),

		providerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_failures_total",
				Help: "Total backend provider call failures, by provider",
			},
			[]string{"provider"},
		),

		providerRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_rejections_total",
				Help: "Total requests rejected because a provider's circuit breaker was open",
			},
			[]string{"provider"},
		),
	}

	reg.MustRegister(
		r.requestsTotal,
		r.requestLatency,
		r.cacheHits,
		r.cacheMisses,
		r.rateLimitHits,
		r.errorsTotal,
		r.providerFailures,
		r.providerRejections,
	)

	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	r.metricsHandler = fasthttpadaptor.NewFastHTTPHandler(h)

	return r
}

// RecordRequest increments inference_requests_total for tenantID/status and
// observes the request's latency.
func (r *Registry) RecordRequest(tenantID, status string, dur float64) {
	r.requestsTotal.WithLabelValues(tenantID, status).Inc()
	r.requestLatency.WithLabelValues(tenantID).Observe(dur)
}

// CacheHit increments inference_cache_hits_total for tenantID.
func (r *Registry) CacheHit(tenantID string) {
	r.cacheHits.WithLabelValues(tenantID).Inc()
}

// CacheMiss increments inference_cache_misses_total for tenantID.
func (r *Registry) CacheMiss(tenantID string) {
	r.cacheMisses.WithLabelValues(tenantID).Inc()
}

// RateLimitHit increments inference_rate_limit_hits_total for tenantID.
func (r *Registry) RateLimitHit(tenantID string) {
	r.rateLimitHits.WithLabelValues(tenantID).Inc()
}

// RecordError increments inference_errors_total for tenantID/errType.
func (r *Registry) RecordError(tenantID, errType string) {
	r.errorsTotal.WithLabelValues(tenantID, errType).Inc()
}

// ProviderFailure increments provider_failures_total for provider.
func (r *Registry) ProviderFailure(provider string) {
	r.providerFailures.WithLabelValues(provider).Inc()
}

// ProviderRejection increments provider_rejections_total for provider.
func (r *Registry) ProviderRejection(provider string) {
	r.providerRejections.WithLabelValues(provider).Inc()
}

// Handler returns the fasthttp handler serving this registry's /metrics.
func (r *Registry) Handler() fasthttp.RequestHandler {
	return r.metricsHandler
}

// PromRegistry exposes the underlying prometheus.Registry for tests.
func (r *Registry) PromRegistry() *prometheus.Registry { return r.reg }
