// Package middleware holds the Gin middleware chain internal/httpapi wires
// in front of every route, grounded on the teacher's
// internal/api/middleware package: panic recovery, structured request
// logging, security headers, permissive CORS for dashboard consumption, a
// JSON content-type guard on writes, and a rate-limit hook left as a no-op
// placeholder the way the teacher's own RateLimitMiddleware is.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"living-economy-arena/econsim/internal/httpapi/dto"
)

// Recovery converts a panic into a structured 500 response instead of a
// crashed connection.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("httpapi: panic recovered", "panic", recovered, "stack", string(debug.Stack()))
		c.JSON(http.StatusInternalServerError, dto.APIResponse{
			Success: false,
			Error: &dto.APIError{
				Code:    "INTERNAL_SERVER_ERROR",
				Message: "an internal server error occurred",
			},
		})
	})
}

// Logging emits one structured log line per request.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("httpapi: request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// SecurityHeaders sets the baseline defensive header set.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Next()
	}
}

// CORS allows any origin to read responses, suitable for a dashboard served
// from a different origin than the API.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// ContentType rejects non-JSON bodies on write methods.
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
				c.JSON(http.StatusUnsupportedMediaType, dto.APIResponse{
					Success: false,
					Error: &dto.APIError{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// RateLimit is a placeholder hook; no limiting is applied today. A
// production deployment would swap this for a redis-backed limiter.
func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}
