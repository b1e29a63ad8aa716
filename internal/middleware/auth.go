package middleware

import (
	"net/http"
	"strings"

	"github.com/Houeta/chrono-dash/internal/auth"
	"github.com/Houeta/chrono-dash/internal/config"
	"github.com/gin-gonic/gin"
)

// SessionCookie carries the session token issued by the login handler.
const SessionCookie = "cd_session"

const basicRealm = `Basic realm="Authorization Required"`

// Auth rejects requests that carry neither a valid session nor valid basic credentials.
// It lets everything through when authentication is disabled.
func Auth(creds config.Auth, tokens *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !creds.Enabled() || Authenticated(c.Request, creds, tokens) {
			c.Next()
			return
		}

		c.Header("WWW-Authenticate", basicRealm)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
}

// Authenticated checks, in order, the session cookie, a bearer token and basic credentials.
func Authenticated(r *http.Request, creds config.Auth, tokens *auth.JWTManager) bool {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if _, err := tokens.ValidateToken(cookie.Value); err == nil {
			return true
		}
	}

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		_, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		return err == nil
	}

	if user, pass, ok := r.BasicAuth(); ok {
		return auth.SecureCompare(user, creds.Username) && auth.SecureCompare(pass, creds.Password)
	}

	return false
}
