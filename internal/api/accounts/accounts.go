// Package accounts implements the HTTP surface over the account service:
// sign-up, sign-in, sign-out, session introspection, and the caller's own
// profile. These are the only unauthenticated write endpoints in the API, so
// the router puts them behind the strict auth rate limit bucket.
package accounts

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leadpocket/leadpocket/internal/auth"
	"github.com/leadpocket/leadpocket/internal/middleware"
	"github.com/leadpocket/leadpocket/internal/telemetry"
	"github.com/leadpocket/leadpocket/internal/validation"
)

type signUpRequest struct {
	Email            string `json:"email" binding:"required"`
	Password         string `json:"password" binding:"required"`
	FullName         string `json:"fullName" binding:"required"`
	OrganizationName string `json:"organizationName" binding:"required"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Sign up
// @Description  Creates an auth identity, an organization on the starter plan, and an admin profile. The three inserts are not atomic; a failure after identity creation is reported as a partial signup.
// @Tags         Accounts
// @Accept       json
// @Produce      json
// @Param        signup  body  signUpRequest  true  "Sign-up payload"
// @Success      201  {object}  auth.SignUpResult
// @Failure      400  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/auth/signup [post]
// SignUpHandler handles POST /api/auth/signup
func SignUpHandler(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signUpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "email, password, fullName and organizationName are required",
			})
			return
		}
		if err := validation.ValidateEmail(req.Email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidatePassword(req.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := svc.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName, req.OrganizationName)
		if err != nil {
			var partial *auth.PartialSignupError
			switch {
			case errors.Is(err, auth.ErrEmailTaken):
				telemetry.SignupsTotal.WithLabelValues("failed").Inc()
				c.JSON(http.StatusConflict, gin.H{
					"error": "An account with this email already exists",
				})
			case errors.As(err, &partial):
				// The identity row exists but the organization or profile
				// insert failed. The caller must not retry with the same
				// email; surfacing the step makes the support path tractable.
				telemetry.SignupsTotal.WithLabelValues("partial").Inc()
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":       "Sign-up partially completed",
					"kind":        "partial_signup",
					"failed_step": partial.Step,
				})
			default:
				telemetry.SignupsTotal.WithLabelValues("failed").Inc()
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
			return
		}

		telemetry.SignupsTotal.WithLabelValues("completed").Inc()
		c.JSON(http.StatusCreated, result)
	}
}

// @Summary      Sign in
// @Description  Exchanges credentials for a bearer token bound to a revocable session.
// @Tags         Accounts
// @Accept       json
// @Produce      json
// @Param        signin  body  signInRequest  true  "Credentials"
// @Success      200  {object}  auth.SignInResult
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/auth/signin [post]
// SignInHandler handles POST /api/auth/signin
func SignInHandler(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "email and password are required",
			})
			return
		}

		result, err := svc.SignIn(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				telemetry.SigninsTotal.WithLabelValues("failure").Inc()
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid email or password",
				})
				return
			}
			telemetry.SigninsTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			return
		}

		telemetry.SigninsTotal.WithLabelValues("success").Inc()
		c.JSON(http.StatusOK, result)
	}
}

// @Summary      Sign out
// @Description  Revokes the bearer token's session. Revocation is immediate; the token stops working even though it has not expired.
// @Tags         Accounts
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /api/auth/signout [post]
// SignOutHandler handles POST /api/auth/signout
func SignOutHandler(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if err := svc.SignOut(c.Request.Context(), token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid session token",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"signed_out": true})
	}
}

// @Summary      Current session
// @Description  Returns the live session for the bearer token, or null when the token is absent, invalid, expired, or revoked. Never an error for a dead session.
// @Tags         Accounts
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/auth/session [get]
// SessionHandler handles GET /api/auth/session
func SessionHandler(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := svc.GetSession(c.Request.Context(), bearerToken(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"session": session})
	}
}

// @Summary      Current user profile
// @Description  Returns the caller's profile with its organization embedded.
// @Tags         Accounts
// @Produce      json
// @Success      200  {object}  models.Profile
// @Failure      401  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /api/auth/me [get]
// MeHandler handles GET /api/auth/me. It runs behind RequireSession, which
// already loaded the profile, so no extra query happens here.
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := middleware.ProfileFromContext(c)
		if profile == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		c.JSON(http.StatusOK, profile)
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
