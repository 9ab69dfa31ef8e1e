// Package apierr provides structured API error responses for the gateway's
// HTTP surface: a flat {"detail": "..."} JSON envelope plus one helper per
// status code the pipeline can return.
package apierr

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
)

// envelope is the JSON body of every error response.
type envelope struct {
	Detail string `json:"detail"`
}

// Write writes detail as JSON to the fasthttp response with the given HTTP
// status.
func Write(ctx *fasthttp.RequestCtx, status int, detail string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(envelope{Detail: detail})
	ctx.SetBody(body)
}

// WriteUnauthenticated writes a 401 for a missing or invalid credential.
func WriteUnauthenticated(ctx *fasthttp.RequestCtx) {
	Write(ctx, fasthttp.StatusUnauthorized, "Invalid or inactive API key")
}

// WriteRateLimited writes a 429 with Retry-After: 60, per the fixed one
// minute rate-limit window.
func WriteRateLimited(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Retry-After", "60")
	Write(ctx, fasthttp.StatusTooManyRequests, "rate limit exceeded")
}

// WriteBreakerOpen writes a 503 for a request rejected because the chosen
// provider's circuit breaker is open.
func WriteBreakerOpen(ctx *fasthttp.RequestCtx) {
	Write(ctx, fasthttp.StatusServiceUnavailable, "provider temporarily unavailable")
}

// WriteProviderError writes a 500 for an upstream provider failure, per the
// error taxonomy's "surfaced as 500 to client" policy.
func WriteProviderError(ctx *fasthttp.RequestCtx, detail string) {
	Write(ctx, fasthttp.StatusInternalServerError, detail)
}

// WriteInvalidRequest writes a 400 for a malformed request body.
func WriteInvalidRequest(ctx *fasthttp.RequestCtx, detail string) {
	Write(ctx, fasthttp.StatusBadRequest, detail)
}

// WriteInternalError writes a 500 for an unexpected failure.
func WriteInternalError(ctx *fasthttp.RequestCtx) {
	Write(ctx, fasthttp.StatusInternalServerError, "internal server error")
}
