package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oakline/staffdir/internal/metrics"
)

// Observe returns a middleware that records request count and latency.
// Routes are labeled by their registered pattern, not the raw path, to keep
// metric cardinality bounded.
func Observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
