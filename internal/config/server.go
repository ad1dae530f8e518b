// Package config provides configuration management for the directory
// service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// ServerConfig holds server-level configuration loaded from environment variables.
type ServerConfig struct {
	Environment Environment
	Port        int
	DatabaseURL string

	RedisURL          string
	RedisRateLimiting bool // use Redis for distributed rate limiting when true

	RateLimit       int // requests per window per client (default: 100)
	RateLimitWindow int // window size in seconds (default: 60)

	JWTSecret      string
	AllowedOrigins []string

	OrgColumnsFile string
}

// LoadServerConfig reads server configuration from environment variables.
// DATABASE_URL is the only required setting.
func LoadServerConfig() (ServerConfig, error) {
	env := Environment(os.Getenv("ENV"))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		env = EnvDevelopment
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return ServerConfig{}, fmt.Errorf("DATABASE_URL is required")
	}

	port := getEnvInt("PORT", 8080)
	if port <= 0 || port > 65535 {
		port = 8080
	}

	rateLimit := getEnvInt("RATE_LIMIT", 100)
	if rateLimit <= 0 {
		rateLimit = 100
	}

	rateLimitWindow := getEnvInt("RATE_LIMIT_WINDOW", 60)
	if rateLimitWindow <= 0 {
		rateLimitWindow = 60
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	orgColumnsFile := os.Getenv("ORG_COLUMNS_FILE")
	if orgColumnsFile == "" {
		orgColumnsFile = "org_columns.yaml"
	}

	return ServerConfig{
		Environment:       env,
		Port:              port,
		DatabaseURL:       databaseURL,
		RedisURL:          os.Getenv("REDIS_URL"),
		RedisRateLimiting: getEnvBool("REDIS_RATE_LIMITING", false),
		RateLimit:         rateLimit,
		RateLimitWindow:   rateLimitWindow,
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AllowedOrigins:    origins,
		OrgColumnsFile:    orgColumnsFile,
	}, nil
}

// getEnvBool reads a boolean from an environment variable, returning the default if unset or invalid.
func getEnvBool(key string, defaultVal bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultVal
	}
}

// getEnvInt reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
