package middleware

import (
	"time"

	"github.com/Houeta/chrono-dash/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency labelled by the matched route template.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
