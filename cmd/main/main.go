package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Houeta/chrono-dash/internal/api"
	"github.com/Houeta/chrono-dash/internal/auth"
	"github.com/Houeta/chrono-dash/internal/bot"
	"github.com/Houeta/chrono-dash/internal/changedetection"
	"github.com/Houeta/chrono-dash/internal/config"
	"github.com/Houeta/chrono-dash/internal/handler"
	"github.com/Houeta/chrono-dash/internal/metrics"
	"github.com/Houeta/chrono-dash/internal/parser"
	"github.com/Houeta/chrono-dash/internal/repository/sqlite"
	"github.com/Houeta/chrono-dash/internal/services/ingest"
	"github.com/Houeta/chrono-dash/internal/services/proxy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const shutdownTimeout = 10 * time.Second

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	err := run(ctx, cfg, logger)
	stop()

	if err != nil {
		logger.Error("Application failed", "error", err)
		os.Exit(1)
	}

	// Log graceful shutdown completion.
	logger.Info("Application stopped gracefully.")
}

// run wires the configured mode, serves HTTP and blocks until ctx is canceled or the server fails.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	if !cfg.Auth.Enabled() {
		logger.Warn("CD_AUTH_PASSWORD is empty, the dashboard is served without authentication")
	}

	deps := api.Deps{
		Log:      logger,
		Config:   cfg,
		Metrics:  m,
		Gatherer: reg,
		Tokens:   auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenTTL),
	}

	switch cfg.Mode {
	case config.ModeStore:
		cleanup, err := setupStore(ctx, cfg, logger, m, &deps)
		if err != nil {
			return err
		}
		defer cleanup()
	case config.ModeProxy:
		client := changedetection.NewClient(logger, cfg.API.URL, cfg.API.Key, cfg.API.Timeout,
			changedetection.WithObserver(m.ObserveUpstream))
		deps.Proxy = handler.NewProxyHandler(logger, proxy.NewService(logger, client))
		logger.Info("Proxying changedetection.io", "api_url", cfg.API.URL)
	}

	srv := api.NewServer(cfg.HTTP, api.NewRouter(deps), logger)
	errCh := srv.StartAsync()

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.", "mode", cfg.Mode)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Stopping application...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// setupStore opens the sqlite store, starts the optional Telegram bot and fills in the store handler.
// The returned cleanup drains pending notifications, stops the bot and closes the store.
func setupStore(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	m *metrics.Metrics,
	deps *api.Deps,
) (func(), error) {
	repo, err := sqlite.NewRepository(ctx, logger, cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	opts := []ingest.Option{ingest.WithObserver(m.ObserveWebhook)}

	var chronoBot *bot.Bot
	if cfg.Tg.Token != "" {
		chronoBot, err = bot.NewBot(logger, cfg.Tg.Token, cfg.Tg.Timeout, repo)
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("failed to init bot: %w", err)
		}
		opts = append(opts, ingest.WithNotifier(chronoBot))

		// Start the bot in a goroutine to allow main to listen for signals.
		go chronoBot.Start()
	}

	ingester := ingest.NewIngester(logger, parser.NewRegexParser(), repo, opts...)
	deps.Store = handler.NewStoreHandler(logger, repo, ingester)

	return func() {
		// Pending notifications finish before the bot goes away.
		ingester.Wait()
		if chronoBot != nil {
			chronoBot.Stop()
		}
		if cerr := repo.Close(); cerr != nil {
			logger.Error("Failed to close storage", "error", cerr)
		}
	}, nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case envProd:
		return slog.New(jsonWithoutTime(slog.LevelWarn))
	default:
		log := slog.New(jsonWithoutTime(slog.LevelError))
		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))

		return log
	}
}

// jsonWithoutTime drops the time attribute; the container runtime stamps each line.
func jsonWithoutTime(level slog.Level) slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
}
