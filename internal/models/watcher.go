package models

import "time"

// Watcher is a monitored URL stored in the local database.
type Watcher struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	WatcherUUID string    `json:"watcherId,omitempty"` // UUID issued by changedetection.io, when known.
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WatcherWithStats is a list row: the watcher, its newest change and how many changes it has.
type WatcherWithStats struct {
	Watcher

	ChangeCount  int     `json:"changeCount"`
	LatestChange *Change `json:"latestChange"`
}

// WatcherDetail is a watcher with all of its changes, newest first.
type WatcherDetail struct {
	Watcher

	Changes []Change `json:"changes"`
}
