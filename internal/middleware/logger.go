package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs one line per request with method, path, status and duration.
func Logger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}

		if len(c.Errors) > 0 {
			log.ErrorContext(c.Request.Context(), "HTTP request with errors",
				append(attrs, slog.String("errors", c.Errors.String()))...)
			return
		}

		if strings.HasPrefix(path, "/health") || path == "/metrics" {
			log.DebugContext(c.Request.Context(), "HTTP request", attrs...)
			return
		}

		log.InfoContext(c.Request.Context(), "HTTP request", attrs...)
	}
}

// Recovery turns a handler panic into a logged 500 response.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.ErrorContext(c.Request.Context(), "panic recovered",
					slog.String("path", c.Request.URL.Path),
					slog.String("panic", fmt.Sprint(rec)))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()

		c.Next()
	}
}
