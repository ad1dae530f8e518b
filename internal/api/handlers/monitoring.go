package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oakline/staffdir/internal/api/middleware"
	"github.com/oakline/staffdir/internal/ratelimit"
)

// HealthChecker reports database liveness and pool statistics.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Health() map[string]any
}

// MonitoringHandler handles health and introspection endpoints.
type MonitoringHandler struct {
	db      HealthChecker
	redis   *redis.Client // nil when Redis is not configured
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
}

// NewMonitoringHandler creates a new MonitoringHandler.
func NewMonitoringHandler(db HealthChecker, rdb *redis.Client, limiter *ratelimit.Limiter, logger zerolog.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		db:      db,
		redis:   rdb,
		limiter: limiter,
		logger:  logger.With().Str("component", "monitoring_handler").Logger(),
	}
}

// Health is a cheap liveness probe.
// GET /health
func (h *MonitoringHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthDetailed checks every dependency and reports per-component status.
// A failing dependency degrades the overall status but still returns 200 so
// orchestrators can distinguish degraded from dead.
// GET /health/detailed
func (h *MonitoringHandler) HealthDetailed(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	components := gin.H{}

	dbStatus := gin.H{"status": "ok", "pool": h.db.Health()}
	if err := h.db.Ping(ctx); err != nil {
		status = "degraded"
		dbStatus = gin.H{"status": "unavailable", "error": err.Error()}
	}
	components["database"] = dbStatus

	if h.redis != nil {
		redisStatus := gin.H{"status": "ok"}
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status = "degraded"
			redisStatus = gin.H{"status": "unavailable", "error": err.Error()}
		}
		components["redis"] = redisStatus
	} else {
		components["redis"] = gin.H{"status": "disabled"}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// RateLimitStatus reports the caller's current rate limit standing without
// consuming quota.
// GET /api/v1/monitoring/rate-limit
func (h *MonitoringHandler) RateLimitStatus(c *gin.Context) {
	info := h.limiter.Introspect(c.Request.Context(), middleware.ClientFromRequest(c))
	c.JSON(http.StatusOK, info)
}
