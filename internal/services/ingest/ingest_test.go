package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/Houeta/chrono-dash/internal/parser"
	"github.com/Houeta/chrono-dash/internal/repository/sqlite"
	"github.com/Houeta/chrono-dash/internal/services/ingest"
	"github.com/Houeta/chrono-dash/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const samplePayload = `[{
	"headers": {"user-agent": "changedetection.io"},
	"body": {
		"version": "1.0",
		"title": "https://www.example.com/product/test-product-123",
		"message": "<del>Old price: $99.99</del>\n**New price: $79.99** \n---\n[[Watch URL](https://www.example.com/product/test-product-123)] [[Diff URL](https://cd.example.com/diff/3f1c2a9e-6b7d-4c1e-9a52-0d8e6f4b7a21)] [[Edit](https://cd.example.com/edit/3f1c2a9e-6b7d-4c1e-9a52-0d8e6f4b7a21#general)]",
		"attachments": [{"filename": "last-screenshot.png", "base64": "iVBORw0KGgo=", "mimetype": "image/png"}],
		"type": "info"
	}
}]`

const sampleWatchID = "3f1c2a9e-6b7d-4c1e-9a52-0d8e6f4b7a21"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngester_Ingest(t *testing.T) {
	watcher := &models.Watcher{ID: 3, URL: "https://www.example.com/product/test-product-123"}

	testCases := []struct {
		name        string
		body        string
		setupMocks  func(repo *mocks.WatcherRepository, n *mocks.Notifier)
		expected    *models.IngestResult
		expectedErr error
	}{
		{
			name: "Success: full payload",
			body: samplePayload,
			setupMocks: func(repo *mocks.WatcherRepository, n *mocks.Notifier) {
				repo.On("UpsertWatcher", mock.Anything, watcher.URL, watcher.URL, sampleWatchID).Return(watcher, true, nil).Once()
				repo.On("AddChange", mock.Anything, mock.MatchedBy(func(c *models.Change) bool {
					return c.WatcherID == 3 &&
						c.WatchURL == watcher.URL &&
						c.DiffURL == "https://cd.example.com/diff/3f1c2a9e-6b7d-4c1e-9a52-0d8e6f4b7a21" &&
						c.EditURL == "https://cd.example.com/edit/3f1c2a9e-6b7d-4c1e-9a52-0d8e6f4b7a21#general" &&
						c.OldValue == "Old price: $99.99" &&
						c.NewValue == "New price: $79.99" &&
						c.ScreenshotBase64 == "iVBORw0KGgo=" &&
						c.ScreenshotMimetype == "image/png" &&
						c.ChangeType == "info" &&
						c.WebhookData != ""
				})).Return(int64(11), nil).Once()
				n.On("NotifyChange", mock.Anything, watcher, mock.AnythingOfType("*models.Change")).Return(nil).Once()
			},
			expected: &models.IngestResult{Success: true, WatcherID: 3, ChangeID: 11, WatcherCreated: true},
		},
		{
			name: "Success: falls back to title when no watch URL",
			body: `{"title": "My page", "message": "something happened"}`,
			setupMocks: func(repo *mocks.WatcherRepository, n *mocks.Notifier) {
				w := &models.Watcher{ID: 4, URL: "My page"}
				repo.On("UpsertWatcher", mock.Anything, "My page", "My page", "").Return(w, false, nil).Once()
				repo.On("AddChange", mock.Anything, mock.AnythingOfType("*models.Change")).Return(int64(12), nil).Once()
				n.On("NotifyChange", mock.Anything, w, mock.Anything).Return(nil).Once()
			},
			expected: &models.IngestResult{Success: true, WatcherID: 4, ChangeID: 12},
		},
		{
			name: "Success: notifier failure is not returned",
			body: `{"message": "[Watch URL](https://example.com)"}`,
			setupMocks: func(repo *mocks.WatcherRepository, n *mocks.Notifier) {
				w := &models.Watcher{ID: 5, URL: "https://example.com"}
				repo.On("UpsertWatcher", mock.Anything, "https://example.com", "https://example.com", "").
					Return(w, false, nil).Once()
				repo.On("AddChange", mock.Anything, mock.Anything).Return(int64(13), nil).Once()
				n.On("NotifyChange", mock.Anything, w, mock.Anything).Return(errors.New("telegram down")).Once()
			},
			expected: &models.IngestResult{Success: true, WatcherID: 5, ChangeID: 13},
		},
		{
			name:        "Error: missing message",
			body:        `{"title": "x"}`,
			setupMocks:  func(_ *mocks.WatcherRepository, _ *mocks.Notifier) {},
			expectedErr: models.ErrMissingMessage,
		},
		{
			name:        "Error: no watcher key",
			body:        `{"message": "no links here"}`,
			setupMocks:  func(_ *mocks.WatcherRepository, _ *mocks.Notifier) {},
			expectedErr: ingest.ErrNoWatcherKey,
		},
		{
			name: "Error: upsert fails",
			body: `{"title": "t", "message": "m"}`,
			setupMocks: func(repo *mocks.WatcherRepository, _ *mocks.Notifier) {
				repo.On("UpsertWatcher", mock.Anything, "t", "t", "").Return(nil, false, assert.AnError).Once()
			},
			expectedErr: assert.AnError,
		},
		{
			name: "Error: add change fails",
			body: `{"title": "t", "message": "m"}`,
			setupMocks: func(repo *mocks.WatcherRepository, _ *mocks.Notifier) {
				repo.On("UpsertWatcher", mock.Anything, "t", "t", "").Return(&models.Watcher{ID: 1}, false, nil).Once()
				repo.On("AddChange", mock.Anything, mock.Anything).Return(int64(0), assert.AnError).Once()
			},
			expectedErr: assert.AnError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := mocks.NewWatcherRepository(t)
			notifier := mocks.NewNotifier(t)
			tc.setupMocks(repo, notifier)

			var observed []error
			ing := ingest.NewIngester(discardLogger(), parser.NewRegexParser(), repo,
				ingest.WithNotifier(notifier),
				ingest.WithObserver(func(err error) { observed = append(observed, err) }),
			)

			res, err := ing.Ingest(t.Context(), []byte(tc.body))
			ing.Wait()

			require.Len(t, observed, 1)
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, res)
				assert.Equal(t, err, observed[0])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res)
			assert.NoError(t, observed[0])
		})
	}
}

type blockingNotifier struct {
	release chan struct{}
	sent    chan error
}

func (n *blockingNotifier) NotifyChange(ctx context.Context, _ *models.Watcher, _ *models.Change) error {
	<-n.release
	n.sent <- ctx.Err()
	return nil
}

func TestIngester_NotifiesInBackground(t *testing.T) {
	repo := mocks.NewWatcherRepository(t)
	w := &models.Watcher{ID: 7, URL: "t"}
	repo.On("UpsertWatcher", mock.Anything, "t", "t", "").Return(w, false, nil).Once()
	repo.On("AddChange", mock.Anything, mock.Anything).Return(int64(21), nil).Once()

	n := &blockingNotifier{release: make(chan struct{}), sent: make(chan error, 1)}
	ing := ingest.NewIngester(discardLogger(), parser.NewRegexParser(), repo, ingest.WithNotifier(n))

	ctx, cancel := context.WithCancel(t.Context())
	res, err := ing.Ingest(ctx, []byte(`{"title": "t", "message": "m"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(21), res.ChangeID)

	// The request is done; the notification must still go out with a live context.
	cancel()
	close(n.release)
	ing.Wait()

	select {
	case nerr := <-n.sent:
		assert.NoError(t, nerr)
	default:
		t.Fatal("notification was not sent")
	}
}

func TestIngester_NotifyTimeout(t *testing.T) {
	repo := mocks.NewWatcherRepository(t)
	repo.On("UpsertWatcher", mock.Anything, "t", "t", "").Return(&models.Watcher{ID: 1}, false, nil).Once()
	repo.On("AddChange", mock.Anything, mock.Anything).Return(int64(1), nil).Once()

	notifier := mocks.NewNotifier(t)
	notifier.On("NotifyChange", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded).Once()

	ing := ingest.NewIngester(discardLogger(), parser.NewRegexParser(), repo,
		ingest.WithNotifier(notifier), ingest.WithNotifyTimeout(20*time.Millisecond))

	_, err := ing.Ingest(t.Context(), []byte(`{"title": "t", "message": "m"}`))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		ing.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification outlived its timeout")
	}
}

func TestIngester_MalformedJSON(t *testing.T) {
	repo := mocks.NewWatcherRepository(t)
	ing := ingest.NewIngester(discardLogger(), parser.NewRegexParser(), repo)

	_, err := ing.Ingest(t.Context(), []byte(`{"message": `))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode webhook payload")
}

func TestIngester_Integration_SameURLTwice(t *testing.T) {
	repo, err := sqlite.NewRepository(t.Context(), discardLogger(), filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	ing := ingest.NewIngester(discardLogger(), parser.NewRegexParser(), repo)

	first, err := ing.Ingest(t.Context(), []byte(samplePayload))
	require.NoError(t, err)
	assert.True(t, first.WatcherCreated)

	stored, err := repo.GetWatcher(t.Context(), first.WatcherID)
	require.NoError(t, err)
	assert.Equal(t, sampleWatchID, stored.WatcherUUID)

	second, err := ing.Ingest(t.Context(), []byte(samplePayload))
	require.NoError(t, err)
	assert.False(t, second.WatcherCreated)
	assert.Equal(t, first.WatcherID, second.WatcherID)
	assert.NotEqual(t, first.ChangeID, second.ChangeID)

	list, err := repo.ListWatchers(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ChangeCount)

	change, err := repo.GetChange(t.Context(), second.ChangeID)
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.com/product/test-product-123", change.WatchURL)
	assert.Equal(t, "Old price: $99.99", change.OldValue)
	assert.Equal(t, "New price: $79.99", change.NewValue)
}
