package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	LoggerKey    contextKey = "logger"
	RequestIDKey contextKey = "request_id"
	SiteCodeKey  contextKey = "site_code"
	UserIDKey    contextKey = "user_id"
)

// requestFields are copied onto loggers built by For, in this order.
var requestFields = []contextKey{RequestIDKey, SiteCodeKey, UserIDKey}

func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// FromContext returns the request logger, or a no-op logger outside a request.
func FromContext(ctx context.Context) *zap.Logger {
	return FromContextOr(ctx, zap.NewNop())
}

func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(LoggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return fallback
}

// WithRequestID, WithSiteCode and WithUserID store the value in ctx and
// return the context logger extended with the matching field.
func WithRequestID(ctx context.Context, l *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return attach(ctx, l, RequestIDKey, requestID)
}

func WithSiteCode(ctx context.Context, l *zap.Logger, siteCode string) (context.Context, *zap.Logger) {
	return attach(ctx, l, SiteCodeKey, siteCode)
}

func WithUserID(ctx context.Context, l *zap.Logger, userID string) (context.Context, *zap.Logger) {
	return attach(ctx, l, UserIDKey, userID)
}

func attach(ctx context.Context, l *zap.Logger, key contextKey, value string) (context.Context, *zap.Logger) {
	l = l.With(zap.String(string(key), value))
	return WithContext(context.WithValue(ctx, key, value), l), l
}

func GetRequestID(ctx context.Context) string { return stringValue(ctx, RequestIDKey) }
func GetSiteCode(ctx context.Context) string  { return stringValue(ctx, SiteCodeKey) }
func GetUserID(ctx context.Context) string    { return stringValue(ctx, UserIDKey) }

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// GetTraceID is empty when ctx carries no sampled span.
func GetTraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// For extends base with the trace, request, site and user found in ctx.
// Handlers and workers that hold their own logger use it to keep entries
// correlated with the access log.
func For(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := make([]zap.Field, 0, len(requestFields)+2)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()))
	}
	for _, key := range requestFields {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
