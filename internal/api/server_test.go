package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Houeta/chrono-dash/internal/api"
	"github.com/Houeta/chrono-dash/internal/auth"
	"github.com/Houeta/chrono-dash/internal/changedetection"
	"github.com/Houeta/chrono-dash/internal/config"
	"github.com/Houeta/chrono-dash/internal/handler"
	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/Houeta/chrono-dash/internal/parser"
	"github.com/Houeta/chrono-dash/internal/repository/sqlite"
	"github.com/Houeta/chrono-dash/internal/services/ingest"
	"github.com/Houeta/chrono-dash/internal/services/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve runs h behind a real api.Server on a loopback port and returns its base URL.
func serve(t *testing.T, cfg config.HTTP, h http.Handler) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := api.NewServer(cfg, h, discardLogger())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
		assert.NoError(t, <-errCh)
	})

	return "http://" + l.Addr().String()
}

func TestServer_ProxyListOutlivesOneUpstreamWindow(t *testing.T) {
	const (
		watches     = 6
		detailDelay = 100 * time.Millisecond
	)

	var detailCalls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/v1/watch" {
			parts := make([]string, 0, watches)
			for i := range watches {
				parts = append(parts, fmt.Sprintf(`"w%d": {"url": "https://example.com/%d", "last_changed": %d}`,
					i, i, 1700000000+i))
			}
			_, _ = io.WriteString(w, "{"+strings.Join(parts, ",")+"}")
			return
		}

		detailCalls.Add(1)
		time.Sleep(detailDelay)
		_, _ = io.WriteString(w, `{"url": "https://example.com", "paused": true}`)
	}))
	t.Cleanup(upstream.Close)

	log := discardLogger()
	client := changedetection.NewClient(log, upstream.URL, "key", time.Second)
	r := api.NewRouter(api.Deps{
		Log:    log,
		Config: &config.Config{Mode: config.ModeProxy, StaticDir: filepath.Join(t.TempDir(), "missing")},
		Tokens: auth.NewJWTManager("", time.Hour),
		Proxy:  handler.NewProxyHandler(log, proxy.NewService(log, client)),
	})

	// The whole fan-out takes longer than the read timeout; the write side has no blanket deadline.
	base := serve(t, config.HTTP{ReadTimeout: 300 * time.Millisecond}, r)

	res, err := http.Get(base + "/api/watchers")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var list []models.WatcherSummary
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	require.Len(t, list, watches)
	for _, w := range list {
		assert.True(t, w.Paused, w.ID)
	}
	assert.Equal(t, int32(watches), detailCalls.Load())
}

type slowNotifier struct {
	delay time.Duration
	sent  atomic.Int32
}

func (n *slowNotifier) NotifyChange(ctx context.Context, _ *models.Watcher, _ *models.Change) error {
	select {
	case <-time.After(n.delay):
		n.sent.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestServer_WebhookDoesNotWaitForNotifier(t *testing.T) {
	log := discardLogger()
	repo, err := sqlite.NewRepository(t.Context(), log, filepath.Join(t.TempDir(), "webhook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	notifier := &slowNotifier{delay: 500 * time.Millisecond}
	ing := ingest.NewIngester(log, parser.NewRegexParser(), repo, ingest.WithNotifier(notifier))

	r := api.NewRouter(api.Deps{
		Log:    log,
		Config: &config.Config{Mode: config.ModeStore, StaticDir: filepath.Join(t.TempDir(), "missing")},
		Tokens: auth.NewJWTManager("", time.Hour),
		Store:  handler.NewStoreHandler(log, repo, ing),
	})

	base := serve(t, config.HTTP{ReadTimeout: time.Second, WriteTimeout: 300 * time.Millisecond}, r)

	res, err := http.Post(base+"/api/webhook", "application/json",
		strings.NewReader(`{"title": "Slow page", "message": "[Watch URL](https://example.com/slow)"}`))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var result models.IngestResult
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.True(t, result.WatcherCreated)

	ing.Wait()
	assert.Equal(t, int32(1), notifier.sent.Load())
}
