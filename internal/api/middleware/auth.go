package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// RequireAuth returns a middleware that rejects requests without a valid
// HS256 bearer token. When no secret is configured the API runs open, which
// is only acceptable for local development.
func RequireAuth(secret string, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth_middleware").Logger()

	if secret == "" {
		log.Warn().Msg("JWT_SECRET is empty, API authentication is disabled")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims := &identityClaims{}
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("rejected bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Next()
	}
}
