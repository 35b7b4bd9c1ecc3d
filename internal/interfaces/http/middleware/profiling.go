package middleware

import (
	"context"

	"github.com/ecommerce/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling labels the CPU samples of each request with its method and route
// pattern so pyroscope can slice profiles per endpoint.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.ProfilingLabelMethod: c.Request.Method,
			telemetry.ProfilingLabelRoute:  route,
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
