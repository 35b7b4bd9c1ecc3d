package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey         contextKey = "logger"
	requestIDKey      contextKey = "request_id"
	userIDKey         contextKey = "user_id"
	organizationIDKey contextKey = "organization_id"
)

// WithContext attaches l to ctx
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	return FromContextOr(ctx, nil)
}

// FromContextOr returns the logger attached to ctx, falling back to fallback
// and then to a no-op logger.
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}

// WithRequestID stores the request id and returns the enriched logger
func WithRequestID(ctx context.Context, l *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	l = l.With(zap.String("request_id", requestID))
	return WithContext(ctx, l), l
}

// WithUserID stores the authenticated user's id
func WithUserID(ctx context.Context, l *zap.Logger, userID uint) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, userIDKey, userID)
	l = l.With(zap.Uint("user_id", userID))
	return WithContext(ctx, l), l
}

// WithOrganizationID stores the organization the request acts in
func WithOrganizationID(ctx context.Context, l *zap.Logger, orgID uint) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, organizationIDKey, orgID)
	l = l.With(zap.Uint("organization_id", orgID))
	return WithContext(ctx, l), l
}

func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}

func GetUserID(ctx context.Context) uint {
	id, _ := ctx.Value(userIDKey).(uint)
	return id
}

func GetOrganizationID(ctx context.Context) uint {
	id, _ := ctx.Value(organizationIDKey).(uint)
	return id
}

// GetTraceID returns the active span's trace id, or ""
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the active span's id, or ""
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}

// WithTraceContext adds trace_id and span_id when ctx carries a valid span
func WithTraceContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// ContextLogger logs with the trace ids of its context.
// Request, user and organization fields are already bound on the logger by
// the With* helpers, so only trace correlation is added per entry.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger for the logger stored in ctx.
//
//	logger.L(ctx).Info("organization created", zap.Uint("id", org.ID))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// WithLogger is L with an explicit logger
func WithLogger(ctx context.Context, l *zap.Logger) *ContextLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ContextLogger{ctx: ctx, logger: l}
}

func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.logger.With(fields...)}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.Zap().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.Zap().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.Zap().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.Zap().Error(msg, fields...) }

// Zap returns the underlying logger with trace fields bound
func (cl *ContextLogger) Zap() *zap.Logger {
	return WithTraceContext(cl.ctx, cl.logger)
}
