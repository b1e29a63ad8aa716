package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Houeta/chrono-dash/internal/models"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// WatcherRepository is the storage contract used by the webhook ingester and the store-mode handlers.
type WatcherRepository interface {
	UpsertWatcher(ctx context.Context, url, title, watcherUUID string) (*models.Watcher, bool, error)
	AddChange(ctx context.Context, change *models.Change) (int64, error)
	ListWatchers(ctx context.Context) ([]models.WatcherWithStats, error)
	GetWatcher(ctx context.Context, id int64) (*models.WatcherDetail, error)
	DeleteWatcher(ctx context.Context, id int64) error
	GetChange(ctx context.Context, id int64) (*models.Change, error)
}

// SubscriptionRepository stores Telegram chats that receive change notifications.
type SubscriptionRepository interface {
	SubscribeChat(ctx context.Context, chatID int64) (bool, error)
	UnsubscribeChat(ctx context.Context, chatID int64) (bool, error)
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}

// Repository represents a data repository that interacts with the database
// and provides logging capabilities. It holds a reference to the database
// and a logger instance for logging operations.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository opens (or creates) the sqlite database at storagePath and migrates its schema.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string) (*Repository, error) {
	// Make sure the parent directory exists, like the dashboard always did on startup.
	if dir := filepath.Dir(storagePath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	dtb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", storagePath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Check if the connection is actually established.
	if err = dtb.PingContext(ctx); err != nil {
		dtb.Close()
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	if err = initSchema(ctx, dtb); err != nil {
		dtb.Close()
		return nil, fmt.Errorf("DB schema initialization error: %w", err)
	}

	return &Repository{db: dtb, log: log}, nil
}

// NewForTest wraps an existing handle (sqlmock in tests) without touching the schema.
func NewForTest(db *sql.DB) *Repository {
	return &Repository{db: db, log: slog.New(slog.DiscardHandler)}
}

// initSchema creates the necessary tables if they don't already exist.
func initSchema(ctx context.Context, dtb *sql.DB) error {
	const migrationQuery = `
	CREATE TABLE IF NOT EXISTS watchers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		title TEXT,
		watcher_uuid TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		watcher_id INTEGER NOT NULL REFERENCES watchers(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		watch_url TEXT,
		diff_url TEXT,
		edit_url TEXT,
		screenshot_base64 TEXT,
		screenshot_mimetype TEXT,
		change_type TEXT,
		old_value TEXT,
		new_value TEXT,
		webhook_data TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_changes_watcher_created ON changes (watcher_id, created_at);

	CREATE TABLE IF NOT EXISTS subscriptions (
		chat_id INTEGER PRIMARY KEY
	);
	`
	_, err := dtb.ExecContext(ctx, migrationQuery)
	if err != nil {
		return fmt.Errorf("failed to execute migration query: %w", err)
	}

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// execAffected runs a write statement and returns how many rows it touched.
func (r *Repository) execAffected(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}

// nullIfEmpty stores absent optional fields as NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}
