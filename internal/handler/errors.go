// Package handler holds the gin handlers for both data-access modes.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/Houeta/chrono-dash/internal/changedetection"
	"github.com/Houeta/chrono-dash/internal/repository"
	"github.com/gin-gonic/gin"
)

var (
	// ErrInvalidID is returned for a path id that is not a positive integer or a watch UUID.
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidTimestamp is returned for a snapshot timestamp that is not an integer.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// classify maps an error to a status code and, when it has one, a client-facing message.
func classify(err error) (int, string) {
	var (
		apiErr *changedetection.APIError
		netErr net.Error
		maxErr *http.MaxBytesError
	)

	switch {
	case errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest, "Invalid id"
	case errors.Is(err, ErrInvalidTimestamp):
		return http.StatusBadRequest, "Invalid timestamp"
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "Request body too large"
	case errors.Is(err, repository.ErrWatcherNotFound):
		return http.StatusNotFound, "Watcher not found"
	case errors.Is(err, repository.ErrChangeNotFound):
		return http.StatusNotFound, "Change not found"
	case errors.Is(err, changedetection.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return http.StatusGatewayTimeout, "Upstream request timed out"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, apiErr.Error()
	}

	return http.StatusInternalServerError, ""
}

// respondError logs err and writes {"error": msg}. fallback is used for unexpected failures.
func respondError(c *gin.Context, log *slog.Logger, err error, fallback string) {
	status, msg := classify(err)
	if msg == "" {
		msg = fallback
	}

	attrs := []any{
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}
	if status >= http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), msg, attrs...)
	} else {
		log.WarnContext(c.Request.Context(), msg, attrs...)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
