package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/Houeta/chrono-dash/internal/services/proxy"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const htmlContentType = "text/html; charset=utf-8"

// ProxyHandler serves the changedetection.io proxy mode.
type ProxyHandler struct {
	log *slog.Logger
	svc proxy.Interface
}

// NewProxyHandler creates a new ProxyHandler instance.
func NewProxyHandler(log *slog.Logger, svc proxy.Interface) *ProxyHandler {
	return &ProxyHandler{log: log, svc: svc}
}

// ListWatchers returns every remote watch, most recently changed first.
func (h *ProxyHandler) ListWatchers(c *gin.Context) {
	watchers, err := h.svc.ListWatchers(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch watchers")
		return
	}

	if watchers == nil {
		watchers = []models.WatcherSummary{}
	}

	c.JSON(http.StatusOK, watchers)
}

// GetWatcher returns one remote watch with its snapshot history, newest first.
func (h *ProxyHandler) GetWatcher(c *gin.Context) {
	id, ok := h.watcherID(c, "id")
	if !ok {
		return
	}

	watcher, err := h.svc.GetWatcher(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch watcher")
		return
	}

	c.JSON(http.StatusOK, watcher)
}

// Preview answers {"preview": null} when the snapshot cannot be fetched.
func (h *ProxyHandler) Preview(c *gin.Context) {
	id, ok := h.watcherID(c, "id")
	if !ok {
		return
	}

	preview, err := h.svc.Preview(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch preview")
		return
	}

	c.JSON(http.StatusOK, models.Preview{Preview: preview})
}

// Snapshot streams the captured HTML for a history timestamp.
func (h *ProxyHandler) Snapshot(c *gin.Context) {
	id, ts, ok := h.snapshotKey(c)
	if !ok {
		return
	}

	content, err := h.svc.Snapshot(c.Request.Context(), id, ts)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch snapshot")
		return
	}

	c.Data(http.StatusOK, htmlContentType, []byte(content))
}

// Diff streams the rendered upstream diff for a history timestamp.
func (h *ProxyHandler) Diff(c *gin.Context) {
	id, ts, ok := h.snapshotKey(c)
	if !ok {
		return
	}

	content, err := h.svc.Diff(c.Request.Context(), id, ts)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch diff")
		return
	}

	c.Data(http.StatusOK, htmlContentType, []byte(content))
}

// DeleteWatcher removes the watch from changedetection.io.
func (h *ProxyHandler) DeleteWatcher(c *gin.Context) {
	id, ok := h.watcherID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err, "Failed to delete watcher")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Watcher deleted successfully"})
}

// Trigger asks changedetection.io to recheck the watch now.
func (h *ProxyHandler) Trigger(c *gin.Context) {
	id, ok := h.watcherID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Trigger(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err, "Failed to trigger check")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Check triggered successfully"})
}

// SystemInfo passes the upstream system info through unchanged.
func (h *ProxyHandler) SystemInfo(c *gin.Context) {
	info, err := h.svc.SystemInfo(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch system info")
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", info)
}

// watcherID reads a path parameter that must hold a changedetection.io watch UUID.
func (h *ProxyHandler) watcherID(c *gin.Context, param string) (string, bool) {
	raw := c.Param(param)
	if _, err := uuid.Parse(raw); err != nil {
		respondError(c, h.log, fmt.Errorf("%w: %q: %w", ErrInvalidID, raw, err), "")
		return "", false
	}

	return raw, true
}

func (h *ProxyHandler) snapshotKey(c *gin.Context) (string, string, bool) {
	id, ok := h.watcherID(c, "watcherId")
	if !ok {
		return "", "", false
	}

	ts := c.Param("timestamp")
	if _, err := strconv.ParseInt(ts, 10, 64); err != nil {
		respondError(c, h.log, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts), "")
		return "", "", false
	}

	return id, ts, true
}
