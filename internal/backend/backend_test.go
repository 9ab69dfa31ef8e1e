package backend

import (
	"context"
	"strings"
	"testing"
)

// TestDummyEchoesWithTenant verifies the dummy backend's fixed output
// format: "[tenant=<T>] echo: <prompt>".
func TestDummyEchoesWithTenant(t *testing.T) {
	d := NewDummy()
	ctx := WithTenant(context.Background(), "tenant-1")

	out, err := d.Predict(ctx, "hello", "dummy-model", 0, 0)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	want := "[tenant=tenant-1] echo: hello"
	if out != want {
		t.Fatalf("Predict = %q, want %q", out, want)
	}
}

// TestDummyNeverFails verifies the dummy backend never returns an error,
// even without a tenant attached to the context.
func TestDummyNeverFails(t *testing.T) {
	d := NewDummy()
	if _, err := d.Predict(context.Background(), "x", "m", 1.0, 50); err != nil {
		t.Fatalf("dummy backend must never fail, got: %v", err)
	}
}

// TestLocalProcessesDeterministically verifies the local backend's fixed
// output format, with the simulated delay disabled.
func TestLocalProcessesDeterministically(t *testing.T) {
	l := &Local{Delay: 0}
	out, err := l.Predict(context.Background(), "hello", "m1", 0, 0)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "m1") {
		t.Fatalf("Predict = %q, want it to mention prompt and model", out)
	}
	if want := "[local: m1] processed: hello"; out != want {
		t.Fatalf("Predict = %q, want %q", out, want)
	}
}
