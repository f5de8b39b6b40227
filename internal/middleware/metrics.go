package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leadpocket/leadpocket/internal/telemetry"
)

// Metrics returns a handler that records a request counter and a latency
// histogram for every request passing through the router.
//
// The path label is taken from c.FullPath(), the matched route template
// (e.g. /api/leads), not the raw URL. Requests that match no registered
// route use the literal "<no-route>" so unhandled paths do not inflate
// label cardinality.
//
// Register after gin.Recovery() and RequestID so the status written by
// error handlers is captured correctly.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
