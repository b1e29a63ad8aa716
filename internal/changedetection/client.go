// Package changedetection is a thin client for the changedetection.io REST API (v1).
package changedetection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	apiPrefix      = "/api/v1"
	apiKeyHeader   = "x-api-key"
	defaultTimeout = 15 * time.Second
)

// ErrNotFound is matched by errors.Is for upstream 404 responses.
var ErrNotFound = errors.New("not found upstream")

// APIError is returned for every non-2xx upstream response.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed: %d %s - %s", e.StatusCode, e.reason(), e.Body)
}

// reason is the upstream reason phrase, or the standard text when the response carried none.
func (e *APIError) reason() string {
	if phrase := strings.TrimPrefix(e.Status, strconv.Itoa(e.StatusCode)+" "); phrase != "" && phrase != e.Status {
		return phrase
	}

	return http.StatusText(e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match upstream 404s.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Watch is a watch as returned by the listing and detail endpoints.
type Watch struct {
	UUID        string `json:"uuid,omitempty"`
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	LastChanged int64  `json:"last_changed,omitempty"`
	LastChecked int64  `json:"last_checked,omitempty"`
	HistoryN    int    `json:"history_n,omitempty"`
	Viewed      bool   `json:"viewed,omitempty"`
	Paused      bool   `json:"paused,omitempty"`
}

// Observer is notified once per upstream call; used for metrics.
type Observer func(endpoint string, err error)

// Client talks to one changedetection.io instance.
type Client struct {
	log     *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
	observe Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithObserver registers a per-call observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// NewClient creates a client for baseURL. timeout bounds every single request;
// zero selects the default.
func NewClient(log *slog.Logger, baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		log:     log,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}

	if apiKey == "" {
		log.Warn("changedetection API key is not set, API calls may fail")
	}

	return c
}

// ListWatches returns all watches in the order the API lists them.
// The listing is an object keyed by UUID; the key is copied into Watch.UUID.
func (c *Client) ListWatches(ctx context.Context) ([]Watch, error) {
	body, err := c.do(ctx, "list", http.MethodGet, "/watch")
	if err != nil {
		return nil, err
	}

	watches, err := decodeWatchList(body)
	if err != nil {
		return nil, fmt.Errorf("changedetection.list: failed to decode response: %w", err)
	}

	return watches, nil
}

func decodeWatchList(body []byte) ([]Watch, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	watches := []Watch{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by caller
		}
		key, _ := keyTok.(string)

		var w Watch
		if err = dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("watch %s: %w", key, err)
		}
		w.UUID = key
		watches = append(watches, w)
	}

	if _, err = dec.Token(); err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}

	return watches, nil
}

// GetWatch returns one watch, including its paused flag.
func (c *Client) GetWatch(ctx context.Context, uuid string) (*Watch, error) {
	var w Watch
	if err := c.getJSON(ctx, "watch", "/watch/"+url.PathEscape(uuid), &w); err != nil {
		return nil, err
	}

	return &w, nil
}

// GetHistory returns snapshot timestamps mapped to their storage paths.
func (c *Client) GetHistory(ctx context.Context, uuid string) (map[string]string, error) {
	history := map[string]string{}
	if err := c.getJSON(ctx, "history", "/watch/"+url.PathEscape(uuid)+"/history", &history); err != nil {
		return nil, err
	}

	return history, nil
}

// GetSnapshot returns the captured content for a history timestamp.
func (c *Client) GetSnapshot(ctx context.Context, uuid, timestamp string) (string, error) {
	body, err := c.do(ctx, "snapshot", http.MethodGet,
		"/watch/"+url.PathEscape(uuid)+"/history/"+url.PathEscape(timestamp))
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// GetDiff returns the rendered diff for a history timestamp.
func (c *Client) GetDiff(ctx context.Context, uuid, timestamp string) (string, error) {
	body, err := c.do(ctx, "diff", http.MethodGet, "/diff/"+url.PathEscape(uuid)+"/"+url.PathEscape(timestamp))
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// DeleteWatch removes a watch upstream.
func (c *Client) DeleteWatch(ctx context.Context, uuid string) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, "/watch/"+url.PathEscape(uuid))
	return err
}

// TriggerCheck queues an immediate recheck of a watch.
func (c *Client) TriggerCheck(ctx context.Context, uuid string) error {
	_, err := c.do(ctx, "trigger", http.MethodGet, "/watch/"+url.PathEscape(uuid)+"/trigger")
	return err
}

// SystemInfo returns the raw systeminfo document.
func (c *Client) SystemInfo(ctx context.Context) (json.RawMessage, error) {
	var info json.RawMessage
	if err := c.getJSON(ctx, "systeminfo", "/systeminfo", &info); err != nil {
		return nil, err
	}

	return info, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	body, err := c.do(ctx, endpoint, http.MethodGet, path)
	if err != nil {
		return err
	}

	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("changedetection.%s: failed to decode response: %w", endpoint, err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string) ([]byte, error) {
	body, err := c.roundTrip(ctx, method, path)
	if c.observe != nil {
		c.observe(endpoint, err)
	}
	if err != nil {
		return nil, fmt.Errorf("changedetection.%s: %w", endpoint, err)
	}

	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string) ([]byte, error) {
	reqURL := c.baseURL + apiPrefix + path

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request %s: %w", reqURL, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.log.DebugContext(ctx, "Send request", "method", method, "URL", reqURL)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", reqURL, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: res.StatusCode, Status: res.Status, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}
