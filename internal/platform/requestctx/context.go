package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type contextKey int

const (
	loggerKey contextKey = iota
	traceKey
	callerKey
)

var noopLogger = zap.NewNop()

// TraceInfo is the Cloud Trace metadata of the current request.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

func store(ctx context.Context, key contextKey, v any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, v)
}

func load[T any](ctx context.Context, key contextKey) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// WithLogger stores logger on ctx. A nil logger stores the no-op logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = noopLogger
	}
	return store(ctx, loggerKey, logger)
}

// Logger returns the request logger, or the no-op logger when none is set.
func Logger(ctx context.Context) *zap.Logger {
	if logger, ok := load[*zap.Logger](ctx, loggerKey); ok && logger != nil {
		return logger
	}
	return noopLogger
}

func NoopLogger() *zap.Logger { return noopLogger }

func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return store(ctx, traceKey, info)
}

func Trace(ctx context.Context) (TraceInfo, bool) {
	return load[TraceInfo](ctx, traceKey)
}

// TraceID returns "" outside a traced request.
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

// WithCaller records the authenticated subject of an internal request.
func WithCaller(ctx context.Context, subject string) context.Context {
	return store(ctx, callerKey, subject)
}

// Caller returns the authenticated subject, or "" for anonymous requests.
func Caller(ctx context.Context) string {
	subject, _ := load[string](ctx, callerKey)
	return subject
}
