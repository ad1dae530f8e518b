// Package main is the entrypoint for the staff directory server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oakline/staffdir/internal/api"
	"github.com/oakline/staffdir/internal/config"
	"github.com/oakline/staffdir/internal/db"
	"github.com/oakline/staffdir/internal/metrics"
	"github.com/oakline/staffdir/internal/orgconfig"
	"github.com/oakline/staffdir/internal/ratelimit"
	"github.com/oakline/staffdir/internal/search"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if os.Getenv("ENV") != string(config.EnvProduction) {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Msg("Starting staff directory server")

	// Load configuration
	cfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	// Connect to database and run migrations
	database, err := db.New(ctx, db.DefaultConfig(cfg.DatabaseURL), logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return 1
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to run migrations")
		return 1
	}

	// Optional Redis connection for distributed rate limiting
	var rdb *redis.Client
	var counter *ratelimit.SlidingWindow
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Msg("Invalid REDIS_URL")
			return 1
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()

		if cfg.RedisRateLimiting {
			counter = ratelimit.NewSlidingWindow(rdb, cfg.RateLimit, cfg.RateLimitWindow, 0)
		}
	}

	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.Limit = cfg.RateLimit
	limiterCfg.Window = cfg.RateLimitWindow
	limiter := ratelimit.New(limiterCfg, counter, logger)
	defer limiter.Close()

	// Per-organization column configuration
	columns, err := orgconfig.NewManager(cfg.OrgColumnsFile, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load organization column config")
		return 1
	}

	m, err := metrics.New()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register metrics")
		return 1
	}

	store := db.NewStore(database.Pool, logger)
	engine := search.NewEngine(store, 0, logger)

	router := api.NewRouter(cfg, database, store, engine, limiter, columns, m, rdb, logger)

	listenAddr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info().Str("addr", listenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info().Str("signal", sig.String()).Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return 1
	}

	logger.Info().Msg("Server stopped")
	return 0
}
