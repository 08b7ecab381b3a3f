package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arenafit/schedule-api/internal/service"
)

// Metrics observes request rate and latency per route. The scrape endpoint
// itself is not observed.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		// Use the route template so path params don't explode cardinality.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
