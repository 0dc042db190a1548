package requestctx

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestLoggerFallsBackToNoop(t *testing.T) {
	if got := Logger(context.Background()); got != NoopLogger() {
		t.Fatalf("expected noop logger, got %v", got)
	}
	if got := Logger(nil); got != NoopLogger() {
		t.Fatalf("expected noop logger for nil context, got %v", got)
	}
	if got := Logger(WithLogger(context.Background(), nil)); got != NoopLogger() {
		t.Fatalf("expected nil logger to store noop, got %v", got)
	}

	logger := zap.NewExample()
	if got := Logger(WithLogger(context.Background(), logger)); got != logger {
		t.Fatalf("expected stored logger, got %v", got)
	}
}

func TestTraceAndCaller(t *testing.T) {
	ctx := context.Background()
	if _, ok := Trace(ctx); ok {
		t.Fatalf("expected no trace on empty context")
	}
	if TraceID(ctx) != "" || Caller(ctx) != "" {
		t.Fatalf("expected empty trace id and caller")
	}

	ctx = WithTrace(ctx, TraceInfo{TraceID: "4bf92f3577b34da6a3ce929d0e0e4736", ProjectID: "book-dev"})
	ctx = WithCaller(ctx, "scheduler@book-dev.iam.gserviceaccount.com")
	if got := TraceID(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("expected trace id, got %q", got)
	}
	if got := Caller(ctx); got != "scheduler@book-dev.iam.gserviceaccount.com" {
		t.Fatalf("expected caller, got %q", got)
	}
	if info, _ := Trace(ctx); info.ProjectID != "book-dev" {
		t.Fatalf("expected project id, got %q", info.ProjectID)
	}
}
