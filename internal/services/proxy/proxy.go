// Package proxy adapts the changedetection.io API to the dashboard's view model.
// Nothing is cached: every call goes to the remote API.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/Houeta/chrono-dash/internal/changedetection"
	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/Houeta/chrono-dash/internal/parser"
)

// API is the subset of the changedetection client used here.
type API interface {
	ListWatches(ctx context.Context) ([]changedetection.Watch, error)
	GetWatch(ctx context.Context, uuid string) (*changedetection.Watch, error)
	GetHistory(ctx context.Context, uuid string) (map[string]string, error)
	GetSnapshot(ctx context.Context, uuid, timestamp string) (string, error)
	GetDiff(ctx context.Context, uuid, timestamp string) (string, error)
	DeleteWatch(ctx context.Context, uuid string) error
	TriggerCheck(ctx context.Context, uuid string) error
	SystemInfo(ctx context.Context) (json.RawMessage, error)
}

// Interface is what the proxy-mode handlers depend on.
type Interface interface {
	ListWatchers(ctx context.Context) ([]models.WatcherSummary, error)
	GetWatcher(ctx context.Context, id string) (*models.RemoteWatcherDetail, error)
	Preview(ctx context.Context, id string) (*string, error)
	Snapshot(ctx context.Context, id, timestamp string) (string, error)
	Diff(ctx context.Context, id, timestamp string) (string, error)
	Delete(ctx context.Context, id string) error
	Trigger(ctx context.Context, id string) error
	SystemInfo(ctx context.Context) (json.RawMessage, error)
}

// Enricher fills in summary fields the listing endpoint leaves out.
// Implementations may batch; they must keep the slice order.
type Enricher interface {
	Enrich(ctx context.Context, watchers []models.WatcherSummary) []models.WatcherSummary
}

// PauseEnricher looks up each watch individually to learn its paused flag.
type PauseEnricher struct {
	log *slog.Logger
	api API
}

// NewPauseEnricher creates the per-watch pause lookup.
func NewPauseEnricher(log *slog.Logger, api API) *PauseEnricher {
	return &PauseEnricher{log: log, api: api}
}

// Enrich implements Enricher. A failed lookup leaves the watcher unpaused.
func (e *PauseEnricher) Enrich(ctx context.Context, watchers []models.WatcherSummary) []models.WatcherSummary {
	for i := range watchers {
		detail, err := e.api.GetWatch(ctx, watchers[i].ID)
		if err != nil {
			e.log.WarnContext(ctx, "Failed to fetch paused status", "watcher_id", watchers[i].ID, "error", err)
			continue
		}
		watchers[i].Paused = detail.Paused
	}

	return watchers
}

// Service implements Interface on top of API.
type Service struct {
	log      *slog.Logger
	api      API
	enricher Enricher
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEnricher replaces the default PauseEnricher.
func WithEnricher(e Enricher) Option {
	return func(s *Service) { s.enricher = e }
}

// WithClock overrides time.Now, used for the creation timestamps the API does not provide.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new proxy service.
func NewService(log *slog.Logger, api API, opts ...Option) *Service {
	s := &Service{log: log, api: api, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.enricher == nil {
		s.enricher = NewPauseEnricher(log, api)
	}

	return s
}

// ListWatchers returns every remote watch, most recently changed first.
// Watches that never changed come last, in listing order.
func (s *Service) ListWatchers(ctx context.Context) ([]models.WatcherSummary, error) {
	const opn = "proxy.ListWatchers"

	watches, err := s.api.ListWatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	created := s.now().UTC().Format(models.ISOMillis)
	summaries := make([]models.WatcherSummary, 0, len(watches))
	for _, w := range watches {
		summary := models.WatcherSummary{
			ID:          w.UUID,
			URL:         w.URL,
			Title:       titleOrURL(w.Title, w.URL),
			CreatedAt:   created,
			ChangeCount: w.HistoryN,
			LastChanged: w.LastChanged,
		}
		if w.LastChanged > 0 {
			latest := models.NewHistoryEntry(w.LastChanged)
			summary.LatestChange = &latest
			summary.UpdatedAt = latest.CreatedAt
		}
		summaries = append(summaries, summary)
	}

	summaries = s.enricher.Enrich(ctx, summaries)
	SortByLastChanged(summaries)

	return summaries, nil
}

// SortByLastChanged orders newest first; entries without a change time go last
// and keep their relative order.
func SortByLastChanged(watchers []models.WatcherSummary) {
	sort.SliceStable(watchers, func(i, j int) bool {
		a, b := watchers[i].LastChanged, watchers[j].LastChanged
		if a == 0 {
			return false
		}
		if b == 0 {
			return true
		}

		return a > b
	})
}

// GetWatcher returns watch detail and its history, newest first.
// A failing history lookup yields an empty history rather than an error.
func (s *Service) GetWatcher(ctx context.Context, id string) (*models.RemoteWatcherDetail, error) {
	const opn = "proxy.GetWatcher"

	watch, err := s.api.GetWatch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	history, err := s.api.GetHistory(ctx, id)
	if err != nil {
		s.log.WarnContext(ctx, "No history found for watcher", "op", opn, "watcher_id", id, "error", err)
		history = nil
	}

	changes := make([]models.HistoryEntry, 0, len(history))
	for key := range history {
		ts, perr := strconv.ParseInt(key, 10, 64)
		if perr != nil {
			s.log.WarnContext(ctx, "Skipping history entry with invalid timestamp", "op", opn, "key", key)
			continue
		}
		changes = append(changes, models.NewHistoryEntry(ts))
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Timestamp > changes[j].Timestamp })

	now := s.now().UTC().Format(models.ISOMillis)
	updated := now
	if watch.LastChanged > 0 {
		updated = models.FormatUnix(watch.LastChanged)
	}

	return &models.RemoteWatcherDetail{
		ID:        id,
		URL:       watch.URL,
		Title:     titleOrURL(watch.Title, watch.URL),
		CreatedAt: now,
		UpdatedAt: updated,
		Changes:   changes,
	}, nil
}

// Preview returns an excerpt of the newest snapshot. Snapshot failures are
// swallowed and reported as a nil preview; watcher lookup failures are not.
func (s *Service) Preview(ctx context.Context, id string) (*string, error) {
	const opn = "proxy.Preview"

	detail, err := s.GetWatcher(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	if len(detail.Changes) == 0 {
		s.log.DebugContext(ctx, "No changes for watcher", "op", opn, "watcher_id", id, "title", detail.Title)
		return nil, nil //nolint:nilnil // absent preview is not an error
	}

	snapshot, err := s.api.GetSnapshot(ctx, id, detail.Changes[0].ID)
	if err != nil {
		s.log.WarnContext(ctx, "Error fetching snapshot for preview", "op", opn, "watcher_id", id, "error", err)
		return nil, nil //nolint:nilnil // absent preview is not an error
	}

	preview := parser.Preview(snapshot, parser.PreviewLength)

	return &preview, nil
}

// Snapshot returns the captured content at timestamp.
func (s *Service) Snapshot(ctx context.Context, id, timestamp string) (string, error) {
	snap, err := s.api.GetSnapshot(ctx, id, timestamp)
	if err != nil {
		return "", fmt.Errorf("proxy.Snapshot: %w", err)
	}

	return snap, nil
}

// Diff returns the rendered diff at timestamp.
func (s *Service) Diff(ctx context.Context, id, timestamp string) (string, error) {
	diff, err := s.api.GetDiff(ctx, id, timestamp)
	if err != nil {
		return "", fmt.Errorf("proxy.Diff: %w", err)
	}

	return diff, nil
}

// Delete removes the watch upstream.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteWatch(ctx, id); err != nil {
		return fmt.Errorf("proxy.Delete: %w", err)
	}

	return nil
}

// Trigger asks upstream to recheck the watch now.
func (s *Service) Trigger(ctx context.Context, id string) error {
	if err := s.api.TriggerCheck(ctx, id); err != nil {
		return fmt.Errorf("proxy.Trigger: %w", err)
	}

	return nil
}

// SystemInfo passes the upstream systeminfo document through.
func (s *Service) SystemInfo(ctx context.Context) (json.RawMessage, error) {
	info, err := s.api.SystemInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("proxy.SystemInfo: %w", err)
	}

	return info, nil
}

func titleOrURL(title, url string) string {
	if title != "" {
		return title
	}

	return url
}
