// Package middleware provides HTTP middleware for the directory API.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by this package.
type ContextKey string

const (
	// OrgContextKey is the context key for the caller's organization ID.
	OrgContextKey ContextKey = "org_id"
	// UserContextKey is the context key for the authenticated user ID.
	UserContextKey ContextKey = "user_id"

	// DefaultOrgID is used when the caller provides no organization.
	DefaultOrgID = "default"
)

type identityClaims struct {
	OrgID  string `json:"org_id"`
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Identity returns a middleware that resolves the caller's organization and
// user. It reads a bearer token when one is present but never rejects the
// request; enforcement belongs to RequireAuth. Callers without a token can
// scope themselves with the X-Organization-ID header.
func Identity(secret string, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "identity_middleware").Logger()

	return func(c *gin.Context) {
		orgID := strings.TrimSpace(c.GetHeader("X-Organization-ID"))
		userID := ""

		if token := bearerToken(c); token != "" && secret != "" {
			claims := &identityClaims{}
			_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil {
				log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("unparseable bearer token")
			} else {
				if claims.OrgID != "" {
					orgID = claims.OrgID
				}
				if claims.UserID != "" {
					userID = claims.UserID
				} else if claims.Subject != "" {
					userID = claims.Subject
				}
			}
		}

		if orgID == "" {
			orgID = DefaultOrgID
		}

		c.Set(string(OrgContextKey), orgID)
		if userID != "" {
			c.Set(string(UserContextKey), userID)
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

// OrgID returns the organization resolved for this request.
func OrgID(c *gin.Context) string {
	if v, ok := c.Get(string(OrgContextKey)); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return DefaultOrgID
}

// UserID returns the authenticated user ID, or empty when anonymous.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(string(UserContextKey)); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
