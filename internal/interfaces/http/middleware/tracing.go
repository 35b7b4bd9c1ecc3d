package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request through otelgin and tags it with
// the request id. It uses the global tracer provider installed by telemetry.Setup.
func Tracing(serviceName string) gin.HandlerFunc {
	base := otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	)
	return func(c *gin.Context) {
		base(c)
	}
}

// SpanAttributes copies request and user ids onto the active span.
// Place it after JWTAuth so the user is known.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				span.SetAttributes(attribute.String("request.id", id))
			}
			if uid := GetUserID(c); uid != 0 {
				span.SetAttributes(attribute.Int64("enduser.id", int64(uid)))
			}
		}
		c.Next()
	}
}

// SpanErrorMarker flags the span as failed on 5xx and records 4xx as an attribute
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.StringSlice("gin.errors", c.Errors.Errors()))
		}
	}
}
