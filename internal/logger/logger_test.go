package logger

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubSink struct {
	inserted int64
	rows     int64
}

func (s *stubSink) Insert(_ context.Context, entries []RequestLog) error {
	atomic.AddInt64(&s.inserted, 1)
	atomic.AddInt64(&s.rows, int64(len(entries)))
	return nil
}

func (s *stubSink) Close() error { return nil }

// TestLogFlushesToSinkOnClose verifies entries logged before Close are
// flushed through the configured sink.
func TestLogFlushesToSinkOnClose(t *testing.T) {
	sink := &stubSink{}
	l, err := New(context.Background(), nil, sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 5; i++ {
		l.Log(RequestLog{ID: uuid.New(), TenantID: "tenant-1", CreatedAt: time.Now()})
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if atomic.LoadInt64(&sink.rows) != 5 {
		t.Fatalf("sink received %d rows, want 5", sink.rows)
	}
}

// TestLogWithoutSinkDoesNotPanic verifies a nil sink is a valid
// configuration.
func TestLogWithoutSinkDoesNotPanic(t *testing.T) {
	l, err := New(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Log(RequestLog{ID: uuid.New(), TenantID: "tenant-1"})
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// TestDroppedLogsCountsOverflow verifies entries beyond the channel buffer
// are dropped and counted rather than blocking the caller.
func TestDroppedLogsCountsOverflow(t *testing.T) {
	l, err := New(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	for i := 0; i < channelBuffer+10; i++ {
		l.Log(RequestLog{ID: uuid.New()})
	}

	if l.DroppedLogs() == 0 {
		t.Fatal("DroppedLogs() = 0, want overflow to be counted")
	}
}

// TestNewRejectsNilContext verifies New validates its context argument.
func TestNewRejectsNilContext(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil { //nolint:staticcheck
		t.Fatal("New(nil, ...): want error")
	}
}
