// Package api provides the HTTP API for the staff directory server.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oakline/staffdir/internal/api/handlers"
	"github.com/oakline/staffdir/internal/api/middleware"
	"github.com/oakline/staffdir/internal/config"
	"github.com/oakline/staffdir/internal/db"
	"github.com/oakline/staffdir/internal/metrics"
	"github.com/oakline/staffdir/internal/orgconfig"
	"github.com/oakline/staffdir/internal/ratelimit"
	"github.com/oakline/staffdir/internal/search"
)

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
}

// NewRouter creates a new Router with the given dependencies. rdb may be nil
// when Redis is not configured.
func NewRouter(
	cfg config.ServerConfig,
	database *db.DB,
	store *db.Store,
	engine *search.Engine,
	limiter *ratelimit.Limiter,
	columns *orgconfig.Manager,
	m *metrics.Metrics,
	rdb *redis.Client,
	logger zerolog.Logger,
) *Router {
	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
	}

	// Global middleware
	r.Engine.Use(gin.Recovery())
	r.Engine.Use(middleware.RequestLogger(logger))
	r.Engine.Use(middleware.SecurityHeaders())
	r.Engine.Use(middleware.CORS(cfg.AllowedOrigins, cfg.Environment))
	r.Engine.Use(middleware.Identity(cfg.JWTSecret, logger))
	r.Engine.Use(middleware.Observe(m))

	// Health and metrics endpoints bypass auth and rate limiting
	monitoring := handlers.NewMonitoringHandler(database, rdb, limiter, logger)
	r.Engine.GET("/health", monitoring.Health)
	r.Engine.GET("/health/detailed", monitoring.HealthDetailed)
	r.Engine.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := r.Engine.Group("/api/v1")
	v1.Use(middleware.RateLimit(limiter, m))
	v1.Use(middleware.RequireAuth(cfg.JWTSecret, logger))
	{
		handlers.NewEmployeesHandler(store, engine, columns, m, logger).RegisterRoutes(v1)
		handlers.NewDirectoryHandler(store, logger).RegisterRoutes(v1)
		handlers.NewOrgColumnsHandler(columns, logger).RegisterRoutes(v1)
		v1.GET("/monitoring/rate-limit", monitoring.RateLimitStatus)
	}

	return r
}
