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

const watcherColumns = "id, url, title, watcher_uuid, created_at, updated_at"

// UpsertWatcher returns the watcher for url, creating it when it does not exist yet.
// The boolean reports whether a new row was inserted. A non-empty watcherUUID is
// recorded on an existing watcher that has none yet.
func (r *Repository) UpsertWatcher(ctx context.Context, url, title, watcherUUID string) (*models.Watcher, bool, error) {
	const opn = "repository.sqlite.UpsertWatcher"

	now := time.Now().UTC()
	res, err := r.db.ExecContext(
		ctx,
		`INSERT INTO watchers (url, title, watcher_uuid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT(url) DO NOTHING`,
		url, nullIfEmpty(title), nullIfEmpty(watcherUUID), now, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to insert watcher: %w", opn, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to read affected rows: %w", opn, err)
	}

	row := r.db.QueryRowContext(ctx, "SELECT "+watcherColumns+" FROM watchers WHERE url = ?", url)
	watcher, err := scanWatcher(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("%s: %w", opn, repository.ErrWatcherNotFound)
		}
		return nil, false, fmt.Errorf("%s: failed to load watcher: %w", opn, err)
	}

	if affected > 0 {
		r.log.DebugContext(ctx, "Created watcher", "op", opn, "id", watcher.ID, "url", url)
	}

	if affected == 0 && watcherUUID != "" && watcher.WatcherUUID == "" {
		_, err = r.db.ExecContext(ctx, "UPDATE watchers SET watcher_uuid = ? WHERE id = ?", watcherUUID, watcher.ID)
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to record watcher uuid: %w", opn, err)
		}
		watcher.WatcherUUID = watcherUUID
	}

	return watcher, affected > 0, nil
}

// ListWatchers returns every watcher with its latest change and change count, most recently updated first.
func (r *Repository) ListWatchers(ctx context.Context) ([]models.WatcherWithStats, error) {
	const opn = "repository.sqlite.ListWatchers"

	const query = `
	SELECT w.id, w.url, w.title, w.watcher_uuid, w.created_at, w.updated_at,
		(SELECT COUNT(*) FROM changes cc WHERE cc.watcher_id = w.id),
		c.id, c.watcher_id, c.title, c.message, c.watch_url, c.diff_url, c.edit_url,
		c.screenshot_base64, c.screenshot_mimetype, c.change_type, c.old_value, c.new_value,
		c.webhook_data, c.created_at
	FROM watchers w
	LEFT JOIN changes c ON c.id = (
		SELECT l.id FROM changes l WHERE l.watcher_id = w.id ORDER BY l.created_at DESC, l.id DESC LIMIT 1
	)
	ORDER BY w.updated_at DESC, w.id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	defer rows.Close()

	watchers := []models.WatcherWithStats{}
	for rows.Next() {
		var (
			w      watcherRow
			c      changeRow
			item   models.WatcherWithStats
			latest sql.NullInt64
		)
		dest := []any{&w.ID, &w.URL, &w.Title, &w.UUID, &w.CreatedAt, &w.UpdatedAt, &item.ChangeCount, &latest}
		// c.dest() starts with the id column, which is scanned into latest above.
		dest = append(dest, c.dest()[1:]...)
		if err = rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%s: failed to scan watcher: %w", opn, err)
		}

		item.Watcher = w.model()
		if latest.Valid {
			c.ID = latest.Int64
			change := c.model()
			item.LatestChange = &change
		}
		watchers = append(watchers, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return watchers, nil
}

// GetWatcher returns the watcher with all of its changes, newest first.
func (r *Repository) GetWatcher(ctx context.Context, id int64) (*models.WatcherDetail, error) {
	const opn = "repository.sqlite.GetWatcher"

	row := r.db.QueryRowContext(ctx, "SELECT "+watcherColumns+" FROM watchers WHERE id = ?", id)
	watcher, err := scanWatcher(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrWatcherNotFound
		}
		return nil, fmt.Errorf("%s: failed to get watcher: %w", opn, err)
	}

	changes, err := r.listChanges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return &models.WatcherDetail{Watcher: *watcher, Changes: changes}, nil
}

// DeleteWatcher removes the watcher; its changes go with it through the cascading foreign key.
func (r *Repository) DeleteWatcher(ctx context.Context, id int64) error {
	const opn = "repository.sqlite.DeleteWatcher"

	affected, err := r.execAffected(ctx, "DELETE FROM watchers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	if affected == 0 {
		return repository.ErrWatcherNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type watcherRow struct {
	ID        int64
	URL       string
	Title     sql.NullString
	UUID      sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w watcherRow) model() models.Watcher {
	return models.Watcher{
		ID:          w.ID,
		URL:         w.URL,
		Title:       w.Title.String,
		WatcherUUID: w.UUID.String,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func scanWatcher(s rowScanner) (*models.Watcher, error) {
	var w watcherRow
	if err := s.Scan(&w.ID, &w.URL, &w.Title, &w.UUID, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with their op
	}

	m := w.model()

	return &m, nil
}
