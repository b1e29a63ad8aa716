package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Houeta/chrono-dash/internal/config"
)

const defaultIdleTimeout = 60 * time.Second

// Server wraps http.Server with start and graceful shutdown.
type Server struct {
	server *http.Server
	log    *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(cfg config.HTTP, h http.Handler, log *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      h,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		log: log,
	}
}

// Start listens on the configured address and blocks until the server is shut down or fails.
func (s *Server) Start() error {
	addr := s.server.Addr
	if addr == "" {
		addr = ":http"
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}

	return s.Serve(l)
}

// Serve accepts connections on l until the server is shut down or fails.
func (s *Server) Serve(l net.Listener) error {
	s.log.Info("Starting HTTP server",
		slog.String("address", l.Addr().String()),
		slog.Duration("read_timeout", s.server.ReadTimeout),
		slog.Duration("write_timeout", s.server.WriteTimeout),
	)

	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// StartAsync starts the server in a goroutine. The channel receives a start failure, if any,
// and is closed when the server stops.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
