package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/Houeta/chrono-dash/internal/repository/sqlite"
	"github.com/Houeta/chrono-dash/internal/services/ingest"
	"github.com/gin-gonic/gin"
)

// StoreHandler serves the local-store mode.
type StoreHandler struct {
	log      *slog.Logger
	repo     sqlite.WatcherRepository
	ingester ingest.Interface
}

// NewStoreHandler creates a new StoreHandler instance.
func NewStoreHandler(log *slog.Logger, repo sqlite.WatcherRepository, ingester ingest.Interface) *StoreHandler {
	return &StoreHandler{log: log, repo: repo, ingester: ingester}
}

// ListWatchers returns every watcher with its change count and latest change.
func (h *StoreHandler) ListWatchers(c *gin.Context) {
	watchers, err := h.repo.ListWatchers(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch watchers")
		return
	}

	if watchers == nil {
		watchers = []models.WatcherWithStats{}
	}

	c.JSON(http.StatusOK, watchers)
}

// GetWatcher returns one watcher with all its changes, newest first.
func (h *StoreHandler) GetWatcher(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	watcher, err := h.repo.GetWatcher(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch watcher")
		return
	}

	if watcher.Changes == nil {
		watcher.Changes = []models.Change{}
	}

	c.JSON(http.StatusOK, watcher)
}

// DeleteWatcher removes a watcher together with its changes.
func (h *StoreHandler) DeleteWatcher(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	if err = h.repo.DeleteWatcher(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err, "Failed to delete watcher")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Watcher deleted successfully"})
}

// GetChange returns a single stored change.
func (h *StoreHandler) GetChange(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	change, err := h.repo.GetChange(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch change")
		return
	}

	c.JSON(http.StatusOK, change)
}

// Webhook ingests one change notification. Ingest failures answer 500 with the error text.
func (h *StoreHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, h.log, fmt.Errorf("failed to read webhook body: %w", err), "Failed to read request body")
		return
	}

	res, err := h.ingester.Ingest(c.Request.Context(), body)
	if err != nil {
		respondError(c, h.log, err, err.Error())
		return
	}

	c.JSON(http.StatusOK, res)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}

	return id, nil
}
