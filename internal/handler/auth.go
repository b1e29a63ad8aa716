package handler

import (
	"log/slog"
	"net/http"

	"github.com/Houeta/chrono-dash/internal/auth"
	"github.com/Houeta/chrono-dash/internal/config"
	"github.com/Houeta/chrono-dash/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles password login for the dashboard.
type AuthHandler struct {
	log    *slog.Logger
	creds  config.Auth
	tokens *auth.JWTManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(log *slog.Logger, creds config.Auth, tokens *auth.JWTManager) *AuthHandler {
	return &AuthHandler{log: log, creds: creds, tokens: tokens}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

// StatusResponse reports the caller's session state.
type StatusResponse struct {
	Authenticated bool `json:"authenticated"`
	AuthRequired  bool `json:"authRequired"`
}

// Login checks the password and issues a session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
		return
	}

	if !h.creds.Enabled() {
		c.JSON(http.StatusOK, LoginResponse{Success: true})
		return
	}

	if !auth.SecureCompare(req.Password, h.creds.Password) {
		h.log.WarnContext(c.Request.Context(), "Failed login attempt", slog.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := h.tokens.GenerateToken()
	if err != nil {
		respondError(c, h.log, err, "Failed to generate token")
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.tokens.Expiration().Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, LoginResponse{Success: true, Token: token})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Status(c *gin.Context) {
	required := h.creds.Enabled()

	c.JSON(http.StatusOK, StatusResponse{
		Authenticated: !required || middleware.Authenticated(c.Request, h.creds, h.tokens),
		AuthRequired:  required,
	})
}
