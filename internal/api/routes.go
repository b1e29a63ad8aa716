// Package api assembles the gin router and HTTP server for both data-access modes.
package api

import (
	"log/slog"
	"net/http"

	"github.com/Houeta/chrono-dash/internal/auth"
	"github.com/Houeta/chrono-dash/internal/config"
	"github.com/Houeta/chrono-dash/internal/handler"
	"github.com/Houeta/chrono-dash/internal/metrics"
	"github.com/Houeta/chrono-dash/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries everything the router needs. Exactly one of Store and Proxy is set.
type Deps struct {
	Log      *slog.Logger
	Config   *config.Config
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Tokens   *auth.JWTManager
	Store    *handler.StoreHandler
	Proxy    *handler.ProxyHandler
}

// NewRouter creates the gin engine with middleware, API routes and static assets.
func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env == "local" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(d.Log))
	router.Use(middleware.Logger(d.Log))
	if d.Metrics != nil {
		router.Use(middleware.Metrics(d.Metrics))
	}

	SetupRoutes(router, d)
	SetupStatic(router, d.Log, d.Config.StaticDir)

	return router
}

// SetupRoutes registers health, metrics, auth and the routes of the configured mode.
func SetupRoutes(router *gin.Engine, d Deps) {
	router.GET("/health", handler.NewHealthHandler(d.Config.Mode).HealthCheck)

	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authHandler := handler.NewAuthHandler(d.Log, d.Config.Auth, d.Tokens)

	api := router.Group("/api")
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.GET("/auth/status", authHandler.Status)

	// The webhook is called by changedetection.io itself and carries no credentials.
	if d.Store != nil {
		api.POST("/webhook", middleware.BodyLimit(middleware.WebhookBodyLimit), d.Store.Webhook)
	}

	protected := api.Group("")
	protected.Use(middleware.Auth(d.Config.Auth, d.Tokens))

	switch {
	case d.Store != nil:
		setupStoreRoutes(protected, d.Store)
	case d.Proxy != nil:
		setupProxyRoutes(protected, d.Proxy)
	}
}

func setupStoreRoutes(rg *gin.RouterGroup, h *handler.StoreHandler) {
	rg.GET("/watchers", h.ListWatchers)
	rg.GET("/watchers/:id", h.GetWatcher)
	rg.DELETE("/watchers/:id", h.DeleteWatcher)
	rg.GET("/changes/:id", h.GetChange)
}

func setupProxyRoutes(rg *gin.RouterGroup, h *handler.ProxyHandler) {
	rg.GET("/watchers", h.ListWatchers)
	rg.GET("/watchers/:id", h.GetWatcher)
	rg.DELETE("/watchers/:id", h.DeleteWatcher)
	rg.GET("/watchers/:id/preview", h.Preview)
	rg.POST("/watchers/:id/trigger", h.Trigger)
	rg.GET("/snapshot/:watcherId/:timestamp", h.Snapshot)
	rg.GET("/diff/:watcherId/:timestamp", h.Diff)
	rg.GET("/systeminfo", h.SystemInfo)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}
