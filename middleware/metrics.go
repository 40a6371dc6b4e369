package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dealmate/agent-backend/common/graceful"
	"github.com/dealmate/agent-backend/monitor"
)

// PrometheusMiddleware records the status and latency of every routed request.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		monitor.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// TrackInFlight counts the request until it completes, so shutdown can wait for it.
func TrackInFlight() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := graceful.BeginRequest()
		defer done()
		c.Next()
	}
}
