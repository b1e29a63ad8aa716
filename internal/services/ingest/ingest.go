package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/Houeta/chrono-dash/internal/parser"
	"github.com/Houeta/chrono-dash/internal/repository/sqlite"
)

// ErrNoWatcherKey is returned when a payload names neither a watch URL nor a title.
var ErrNoWatcherKey = errors.New("cannot identify watcher: payload has no watch URL or title")

const defaultNotifyTimeout = 30 * time.Second

// Notifier is told about every stored change.
type Notifier interface {
	NotifyChange(ctx context.Context, watcher *models.Watcher, change *models.Change) error
}

// Interface is what the webhook handler depends on.
type Interface interface {
	// Ingest stores one change notification.
	Ingest(ctx context.Context, body []byte) (*models.IngestResult, error)
}

// Ingester turns webhook notifications into stored watchers and changes.
type Ingester struct {
	log      *slog.Logger
	parser   parser.MessageParser
	repo     sqlite.WatcherRepository
	notifier Notifier
	observe  func(error)

	notifyTimeout time.Duration
	wg            sync.WaitGroup
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithNotifier forwards stored changes to n.
func WithNotifier(n Notifier) Option {
	return func(i *Ingester) { i.notifier = n }
}

// WithObserver is called with the outcome of every Ingest call.
func WithObserver(fn func(error)) Option {
	return func(i *Ingester) { i.observe = fn }
}

// WithNotifyTimeout bounds each notification sent after a change is stored.
func WithNotifyTimeout(d time.Duration) Option {
	return func(i *Ingester) { i.notifyTimeout = d }
}

// NewIngester creates a new Ingester instance.
func NewIngester(log *slog.Logger, p parser.MessageParser, repo sqlite.WatcherRepository, opts ...Option) *Ingester {
	i := &Ingester{log: log, parser: p, repo: repo, notifyTimeout: defaultNotifyTimeout}
	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Ingest decodes body, upserts the watcher keyed by its URL and appends a change.
func (i *Ingester) Ingest(ctx context.Context, body []byte) (*models.IngestResult, error) {
	res, err := i.ingest(ctx, body)
	if i.observe != nil {
		i.observe(err)
	}

	return res, err
}

// Wait blocks until every notification started by Ingest has finished.
func (i *Ingester) Wait() {
	i.wg.Wait()
}

func (i *Ingester) ingest(ctx context.Context, body []byte) (*models.IngestResult, error) {
	const opn = "ingest.Ingest"
	log := i.log.With("op", opn)

	// 1. Decode the notification.
	payload, err := models.DecodeWebhook(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	// 2. Pull links and values out of the message.
	fields := i.parser.Parse(payload.Message)

	key := fields.WatchURL
	if key == "" {
		key = payload.Title
	}
	if key == "" {
		return nil, fmt.Errorf("%s: %w", opn, ErrNoWatcherKey)
	}

	title := payload.Title
	if title == "" {
		title = key
	}

	// 3. The watcher row is committed before the change that references it.
	watcher, created, err := i.repo.UpsertWatcher(ctx, key, title, fields.WatcherUUID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to upsert watcher: %w", opn, err)
	}
	if created {
		log.InfoContext(ctx, "New watcher registered", "watcher_id", watcher.ID, "url", key)
	}

	change := &models.Change{
		WatcherID:   watcher.ID,
		Title:       title,
		Message:     payload.Message,
		WatchURL:    fields.WatchURL,
		DiffURL:     fields.DiffURL,
		EditURL:     fields.EditURL,
		ChangeType:  payload.Type,
		OldValue:    fields.OldValue,
		NewValue:    fields.NewValue,
		WebhookData: string(bytes.TrimSpace(body)),
	}
	if shot, ok := payload.Screenshot(); ok {
		change.ScreenshotBase64 = shot.Base64
		change.ScreenshotMimetype = shot.Mimetype
	}

	// 4. Append the change.
	changeID, err := i.repo.AddChange(ctx, change)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to store change: %w", opn, err)
	}
	log.InfoContext(ctx, "Change stored", "watcher_id", watcher.ID, "change_id", changeID)

	// 5. Notifications are best-effort and do not hold up the response.
	if i.notifier != nil {
		i.notify(ctx, log, watcher, change)
	}

	return &models.IngestResult{
		Success:        true,
		WatcherID:      watcher.ID,
		ChangeID:       changeID,
		WatcherCreated: created,
	}, nil
}

// notify sends the change in the background with a context that outlives the request.
func (i *Ingester) notify(ctx context.Context, log *slog.Logger, watcher *models.Watcher, change *models.Change) {
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.notifyTimeout)
		defer cancel()

		if err := i.notifier.NotifyChange(nctx, watcher, change); err != nil {
			log.WarnContext(nctx, "Failed to send change notification", "error", err)
		}
	}()
}
