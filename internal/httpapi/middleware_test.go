package httpapi

import (
	"strings"
	"testing"

	"github.com/valyala/fasthttp"
)

// TestRecoveryNoPanic verifies a normal handler's response passes through
// untouched.
func TestRecoveryNoPanic(t *testing.T) {
	handler := recovery(func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	ctx := &fasthttp.RequestCtx{}
	handler(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Errorf("expected 200, got %d", ctx.Response.StatusCode())
	}
}

// TestRecoveryCatchesPanic verifies a panicking handler yields a 500 with
// the flat detail envelope instead of crashing.
func TestRecoveryCatchesPanic(t *testing.T) {
	handler := recovery(func(ctx *fasthttp.RequestCtx) {
		panic("mock panic")
	})

	ctx := &fasthttp.RequestCtx{}
	handler(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusInternalServerError {
		t.Errorf("expected 500, got %d", ctx.Response.StatusCode())
	}
	if !strings.Contains(string(ctx.Response.Body()), "detail") {
		t.Errorf("expected detail envelope, got: %s", ctx.Response.Body())
	}
}

// TestRequestIDGeneratesWhenMissing verifies a fresh UUID is minted and
// echoed when the client supplies none.
func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	handler := requestID(func(ctx *fasthttp.RequestCtx) {
		id, _ := ctx.UserValue(requestIDKey).(string)
		if id == "" {
			t.Error("request id should be generated")
		}
	})

	ctx := &fasthttp.RequestCtx{}
	handler(ctx)

	if string(ctx.Response.Header.Peek("X-Request-ID")) == "" {
		t.Error("X-Request-ID response header should be set")
	}
}

// TestRequestIDPreservesExisting verifies a client-supplied X-Request-ID is
// echoed unchanged.
func TestRequestIDPreservesExisting(t *testing.T) {
	handler := requestID(func(ctx *fasthttp.RequestCtx) {})

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("X-Request-ID", "custom-id-123")
	handler(ctx)

	if got := string(ctx.Response.Header.Peek("X-Request-ID")); got != "custom-id-123" {
		t.Errorf("X-Request-ID = %q, want custom-id-123", got)
	}
}

// TestCORSHandlerAnswersPreflight verifies an OPTIONS request short-circuits
// with 204 and never reaches the wrapped handler.
func TestCORSHandlerAnswersPreflight(t *testing.T) {
	called := false
	handler := corsHandler([]string{"*"})(func(ctx *fasthttp.RequestCtx) { called = true })

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodOptions)
	handler(ctx)

	if called {
		t.Error("wrapped handler should not run for OPTIONS preflight")
	}
	if ctx.Response.StatusCode() != fasthttp.StatusNoContent {
		t.Errorf("expected 204, got %d", ctx.Response.StatusCode())
	}
}
