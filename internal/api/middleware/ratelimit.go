package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oakline/staffdir/internal/metrics"
	"github.com/oakline/staffdir/internal/ratelimit"
)

// ClientFromRequest derives the rate limit client identity for a request.
func ClientFromRequest(c *gin.Context) ratelimit.Client {
	return ratelimit.Client{
		IP:     c.ClientIP(),
		OrgID:  OrgID(c),
		UserID: UserID(c),
	}
}

// RateLimit returns a middleware that enforces the hybrid rate limiter.
// Allowed requests carry informational X-RateLimit headers; rejected ones
// get a 429 with a Retry-After hint.
func RateLimit(limiter *ratelimit.Limiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := limiter.Decide(c.Request.Context(), ClientFromRequest(c))

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Window", strconv.Itoa(d.Window))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		c.Header("X-RateLimit-Backend", string(d.Backend))

		outcome := "allowed"
		if !d.Allowed {
			outcome = "rejected"
		}
		if m != nil {
			m.RateLimitDecisions.WithLabelValues(string(d.Backend), outcome).Inc()
		}

		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(d.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":     "Rate limit exceeded. Please try again later.",
				"retry_after": d.RetryAfter,
				"rate_limit":  d.Limit,
				"window_size": d.Window,
				"backend":     string(d.Backend),
			})
			return
		}

		c.Next()
	}
}
