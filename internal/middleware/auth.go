// Package middleware provides Gin HTTP middleware for authentication, rate
// limiting, security headers, request identifiers, and metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Recovery → RequestID → Metrics → Logger → CORS → Security → RateLimit → Auth → Handler
//
// Rate limiting runs before auth so brute-force attempts are rejected before
// any database work. Auth populates the caller's identity, profile, and
// organization in the request context; handlers read from there and never
// trust organization identifiers supplied by the client on protected routes.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leadpocket/leadpocket/internal/db/models"
	"github.com/leadpocket/leadpocket/internal/db/repositories"
)

// Context keys populated by RequireSession.
const (
	IdentityIDKey     = "identity_id"
	SessionIDKey      = "session_id"
	ProfileKey        = "profile"
	OrganizationIDKey = "organization_id"
)

// SessionValidator is the subset of the account service used to authenticate
// requests.
type SessionValidator interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	GetUserProfile(ctx context.Context, authUserID string) (*models.Profile, error)
}

// RequireSession authenticates a request from its Bearer token. The token
// must decode to a session that is still live (not revoked, not expired);
// token validity alone is not enough, so sign-out takes effect immediately.
// On success the caller's identity id, session id, profile, and organization
// id are stored in the context.
func RequireSession(svc SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		session, err := svc.GetSession(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Authentication failed",
			})
			return
		}
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired session",
			})
			return
		}

		profile, err := svc.GetUserProfile(c.Request.Context(), session.IdentityID)
		if err != nil {
			if errors.Is(err, repositories.ErrProfileNotFound) {
				// Authenticated identity without a profile row, the
				// partial-signup case. The caller cannot act on any
				// organization's data.
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "No profile for authenticated user",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load profile",
			})
			return
		}

		c.Set(IdentityIDKey, session.IdentityID)
		c.Set(SessionIDKey, session.ID)
		c.Set(ProfileKey, profile)
		c.Set(OrganizationIDKey, profile.OrganizationID)

		c.Next()
	}
}

// ProfileFromContext returns the profile stored by RequireSession, or nil if
// the request was not authenticated.
func ProfileFromContext(c *gin.Context) *models.Profile {
	v, ok := c.Get(ProfileKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Profile)
	return p
}

// OrganizationIDFromContext returns the caller's organization id, or "" if
// the request was not authenticated.
func OrganizationIDFromContext(c *gin.Context) string {
	return c.GetString(OrganizationIDKey)
}

// RequireAdmin rejects requests whose profile role is not admin. It must run
// after RequireSession.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := ProfileFromContext(c)
		if profile == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}
		if !profile.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin role required",
			})
			return
		}
		c.Next()
	}
}
