// Package api wires the HTTP surface: middleware chain, route groups, and the
// operational endpoints (health, readiness, version).
package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/leadpocket/leadpocket/internal/api/accounts"
	"github.com/leadpocket/leadpocket/internal/api/leads"
	"github.com/leadpocket/leadpocket/internal/auth"
	"github.com/leadpocket/leadpocket/internal/config"
	"github.com/leadpocket/leadpocket/internal/db"
	"github.com/leadpocket/leadpocket/internal/middleware"
)

// Version is the service version reported by /version. Overridden at build
// time with -ldflags "-X ...api.Version=".
var Version = "0.1.0"

// BackgroundServices holds long-lived components the router starts; main
// stops them on shutdown.
type BackgroundServices struct {
	APILimiter  *middleware.RateLimiter
	AuthLimiter *middleware.RateLimiter
}

// Stop shuts down the background services
func (b *BackgroundServices) Stop() {
	b.APILimiter.Stop()
	b.AuthLimiter.Stop()
}

// NewRouter builds the Gin engine with the full middleware chain and all
// routes registered.
//
// Route groups:
//   - /api/auth: sign-up and sign-in behind the strict rate limit bucket so
//     credential stuffing is throttled before any bcrypt work; sign-out and
//     session introspection behind the general bucket.
//   - /api/leads: authenticated, general bucket.
//   - /health, /ready, /version: operational, no auth.
func NewRouter(cfg *config.Config, sqlDB *sql.DB, svc *auth.Service) (*gin.Engine, *BackgroundServices) {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")

	apiLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	authLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeaders(middleware.APISecurityHeadersConfig()))

	router.GET("/health", healthCheckHandler(sqlDB))
	router.GET("/ready", readinessHandler(sqlDB))
	router.GET("/version", versionHandler())

	authGroup := router.Group("/api/auth")
	{
		strict := authGroup.Group("", middleware.RateLimit(authLimiter))
		strict.POST("/signup", accounts.SignUpHandler(svc))
		strict.POST("/signin", accounts.SignInHandler(svc))

		general := authGroup.Group("", middleware.RateLimit(apiLimiter))
		general.POST("/signout", accounts.SignOutHandler(svc))
		general.GET("/session", accounts.SessionHandler(svc))
		general.GET("/me", middleware.RequireSession(svc), accounts.MeHandler())
	}

	leadsGroup := router.Group("/api/leads", middleware.RateLimit(apiLimiter), middleware.RequireSession(svc))
	{
		leadsGroup.GET("", leads.ListHandler(sqlxDB))
		leadsGroup.POST("", leads.CreateHandler(sqlxDB))
	}

	return router, &BackgroundServices{
		APILimiter:  apiLimiter,
		AuthLimiter: authLimiter,
	}
}

// LoggerMiddleware emits one structured log record per request
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles cross-origin requests from the configured origins
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Server.CORSOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheckHandler reports liveness: the process is up and the database
// connection answers a ping.
func healthCheckHandler(sqlDB *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler reports readiness: the database answers and the schema
// migrations have been applied.
func readinessHandler(sqlDB *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "database connection failed",
			})
			return
		}

		version, dirty, err := db.GetMigrationVersion(sqlDB)
		if err != nil || dirty {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "schema migrations not applied",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":            "ready",
			"migration_version": version,
		})
	}
}

func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     Version,
			"api_version": "v1",
		})
	}
}
