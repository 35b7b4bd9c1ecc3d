package middleware

import (
	"github.com/ecommerce/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// unmatchedRoute labels requests gin could not route, keeping label cardinality bounded
const unmatchedRoute = "unmatched"

// Metrics records request count and latency by matched route pattern
func Metrics(m *telemetry.HTTPMetrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		done := m.Start(c.Request.Method)
		c.Next()
		done(routePattern(c), c.Writer.Status())
	}
}

func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
