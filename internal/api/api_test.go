package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Houeta/chrono-dash/internal/api"
	"github.com/Houeta/chrono-dash/internal/auth"
	"github.com/Houeta/chrono-dash/internal/config"
	"github.com/Houeta/chrono-dash/internal/handler"
	"github.com/Houeta/chrono-dash/internal/metrics"
	"github.com/Houeta/chrono-dash/internal/parser"
	"github.com/Houeta/chrono-dash/internal/repository/sqlite"
	"github.com/Houeta/chrono-dash/internal/services/ingest"
	"github.com/Houeta/chrono-dash/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStaticDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o600))

	return dir
}

func newStoreRouter(t *testing.T, creds config.Auth) http.Handler {
	t.Helper()

	log := discardLogger()
	repo, err := sqlite.NewRepository(t.Context(), log, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	ing := ingest.NewIngester(log, parser.NewRegexParser(), repo, ingest.WithObserver(m.ObserveWebhook))

	cfg := &config.Config{Env: "test", Mode: config.ModeStore, StaticDir: newStaticDir(t), Auth: creds}

	return api.NewRouter(api.Deps{
		Log:      log,
		Config:   cfg,
		Metrics:  m,
		Gatherer: reg,
		Tokens:   auth.NewJWTManager("signing-key", time.Hour),
		Store:    handler.NewStoreHandler(log, repo, ing),
	})
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestStoreRouter(t *testing.T) {
	creds := config.Auth{Username: "admin", Password: "hunter2"}
	r := newStoreRouter(t, creds)

	t.Run("health is public", func(t *testing.T) {
		w := do(r, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","mode":"store"}`, w.Body.String())
	})

	t.Run("webhook is public", func(t *testing.T) {
		body := `{"title":"Example","message":"[Watch URL](https://example.com)"}`
		w := do(r, httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"watcherCreated":true`)
	})

	t.Run("watchers require credentials", func(t *testing.T) {
		w := do(r, httptest.NewRequest(http.MethodGet, "/api/watchers", http.NoBody))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
	})

	t.Run("watchers with basic credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/watchers", http.NoBody)
		req.SetBasicAuth("admin", "hunter2")
		w := do(r, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "https://example.com")
	})

	t.Run("watchers with login session", func(t *testing.T) {
		login := do(r, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"password":"hunter2"}`)))
		require.Equal(t, http.StatusOK, login.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/watchers", http.NoBody)
		req.AddCookie(login.Result().Cookies()[0])
		w := do(r, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("metrics are exported", func(t *testing.T) {
		w := do(r, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `chronodash_webhooks_ingested_total{result="success"} 1`)
		assert.Contains(t, w.Body.String(), `chronodash_http_requests_total`)
	})

	t.Run("proxy-only routes are absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/systeminfo", http.NoBody)
		req.SetBasicAuth("admin", "hunter2")
		w := do(r, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
	})
}

func TestStaticFallback(t *testing.T) {
	r := newStoreRouter(t, config.Auth{Username: "admin"})

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"asset", http.MethodGet, "/assets/app.js", http.StatusOK, "console.log(1)"},
		{"client route", http.MethodGet, "/watchers/12", http.StatusOK, "<html>app</html>"},
		{"root", http.MethodGet, "/", http.StatusOK, "<html>app</html>"},
		{"dot segments are rejected", http.MethodGet, "/../../etc/passwd", http.StatusBadRequest, ""},
		{"unknown API path", http.MethodGet, "/api/nope", http.StatusNotFound, `{"error":"Not found"}`},
		{"non-GET", http.MethodPost, "/watchers", http.StatusNotFound, `{"error":"Not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, httptest.NewRequest(tt.method, tt.target, http.NoBody))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			assert.NotContains(t, w.Body.String(), "root:")
		})
	}
}

func TestProxyRouter(t *testing.T) {
	log := discardLogger()
	svc := mocks.NewProxyService(t)
	svc.On("SystemInfo", mock.Anything).Return(json.RawMessage(`{"version":"0.47"}`), nil).Once()

	r := api.NewRouter(api.Deps{
		Log:    log,
		Config: &config.Config{Mode: config.ModeProxy, StaticDir: filepath.Join(t.TempDir(), "missing")},
		Tokens: auth.NewJWTManager("", time.Hour),
		Proxy:  handler.NewProxyHandler(log, svc),
	})

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/systeminfo", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"version":"0.47"}`, w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, w.Code, "webhook exists only in store mode")

	w = do(r, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code, "no frontend without a static dir")

	w = do(r, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code, "metrics route needs a gatherer")
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := api.NewServer(config.HTTP{Addr: "127.0.0.1:0", ReadTimeout: time.Second, WriteTimeout: time.Second},
		http.NotFoundHandler(), discardLogger())

	errCh := srv.StartAsync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err, ok := <-errCh:
		if ok {
			require.NoError(t, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
