package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/Houeta/chrono-dash/internal/repository"
)

const changeColumns = `id, watcher_id, title, message, watch_url, diff_url, edit_url,
	screenshot_base64, screenshot_mimetype, change_type, old_value, new_value, webhook_data, created_at`

// AddChange appends a change to an existing watcher and bumps the watcher's update time.
func (r *Repository) AddChange(ctx context.Context, change *models.Change) (int64, error) {
	const opn = "repository.sqlite.AddChange"

	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return 0, fmt.Errorf("%s: failed to begin transaction: %w", opn, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit returns sql.ErrTxDone

	res, err := tx.ExecContext(ctx, `INSERT INTO changes (
		watcher_id, title, message, watch_url, diff_url, edit_url,
		screenshot_base64, screenshot_mimetype, change_type, old_value, new_value, webhook_data, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		change.WatcherID, change.Title, change.Message,
		nullIfEmpty(change.WatchURL), nullIfEmpty(change.DiffURL), nullIfEmpty(change.EditURL),
		nullIfEmpty(change.ScreenshotBase64), nullIfEmpty(change.ScreenshotMimetype),
		nullIfEmpty(change.ChangeType), nullIfEmpty(change.OldValue), nullIfEmpty(change.NewValue),
		nullIfEmpty(change.WebhookData), change.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to insert change: %w", opn, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to read change id: %w", opn, err)
	}

	_, err = tx.ExecContext(ctx, "UPDATE watchers SET updated_at = ? WHERE id = ?", change.CreatedAt, change.WatcherID)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to touch watcher: %w", opn, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: failed to commit transaction: %w", opn, err)
	}

	change.ID = id

	return id, nil
}

// GetChange returns a single change by id.
func (r *Repository) GetChange(ctx context.Context, id int64) (*models.Change, error) {
	const opn = "repository.sqlite.GetChange"

	var c changeRow
	err := r.db.QueryRowContext(ctx, "SELECT "+changeColumns+" FROM changes WHERE id = ?", id).Scan(c.dest()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrChangeNotFound
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	change := c.model()

	return &change, nil
}

func (r *Repository) listChanges(ctx context.Context, watcherID int64) ([]models.Change, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT "+changeColumns+" FROM changes WHERE watcher_id = ? ORDER BY created_at DESC, id DESC",
		watcherID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get changes: %w", err)
	}
	defer rows.Close()

	changes := []models.Change{}
	for rows.Next() {
		var c changeRow
		if err = rows.Scan(c.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		changes = append(changes, c.model())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return changes, nil
}

// changeRow mirrors the changes table. Every column is nullable so the same
// struct can scan the LEFT JOIN in ListWatchers.
type changeRow struct {
	ID                 int64
	WatcherID          sql.NullInt64
	Title              sql.NullString
	Message            sql.NullString
	WatchURL           sql.NullString
	DiffURL            sql.NullString
	EditURL            sql.NullString
	ScreenshotBase64   sql.NullString
	ScreenshotMimetype sql.NullString
	ChangeType         sql.NullString
	OldValue           sql.NullString
	NewValue           sql.NullString
	WebhookData        sql.NullString
	CreatedAt          sql.NullTime
}

func (c *changeRow) dest() []any {
	return []any{
		&c.ID, &c.WatcherID, &c.Title, &c.Message, &c.WatchURL, &c.DiffURL, &c.EditURL,
		&c.ScreenshotBase64, &c.ScreenshotMimetype, &c.ChangeType, &c.OldValue, &c.NewValue,
		&c.WebhookData, &c.CreatedAt,
	}
}

func (c *changeRow) model() models.Change {
	return models.Change{
		ID:                 c.ID,
		WatcherID:          c.WatcherID.Int64,
		Title:              c.Title.String,
		Message:            c.Message.String,
		WatchURL:           c.WatchURL.String,
		DiffURL:            c.DiffURL.String,
		EditURL:            c.EditURL.String,
		ScreenshotBase64:   c.ScreenshotBase64.String,
		ScreenshotMimetype: c.ScreenshotMimetype.String,
		ChangeType:         c.ChangeType.String,
		OldValue:           c.OldValue.String,
		NewValue:           c.NewValue.String,
		WebhookData:        c.WebhookData.String,
		CreatedAt:          c.CreatedAt.Time,
	}
}
