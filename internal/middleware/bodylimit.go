package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebhookBodyLimit is the largest webhook body accepted, screenshots included.
const WebhookBodyLimit = 50 << 20

// BodyLimit caps the request body at limit bytes. Reads past the cap fail with *http.MaxBytesError.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
