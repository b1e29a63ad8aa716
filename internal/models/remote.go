package models

import (
	"strconv"
	"time"
)

// ISOMillis formats timestamps the way the dashboard frontend expects them.
const ISOMillis = "2006-01-02T15:04:05.000Z"

// FormatUnix renders a unix timestamp (seconds) as an ISO-8601 UTC string.
func FormatUnix(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(ISOMillis)
}

// HistoryEntry is a change materialized from a remote history timestamp.
// ID holds the timestamp as a string; it is also the snapshot key.
type HistoryEntry struct {
	ID          string `json:"id"`
	CreatedAt   string `json:"createdAt"`
	Timestamp   int64  `json:"timestamp"`
	SizeTotal   int    `json:"size_total"`
	SizeRemoved int    `json:"size_removed"`
	SizeAdded   int    `json:"size_added"`
}

// NewHistoryEntry builds an entry for the given unix timestamp.
func NewHistoryEntry(ts int64) HistoryEntry {
	return HistoryEntry{
		ID:        strconv.FormatInt(ts, 10),
		CreatedAt: FormatUnix(ts),
		Timestamp: ts,
	}
}

// WatcherSummary is a list row in proxy mode.
// UpdatedAt is empty when the remote watch never changed; LastChanged is the raw value used for ordering.
type WatcherSummary struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	Title        string        `json:"title"`
	CreatedAt    string        `json:"createdAt"`
	UpdatedAt    string        `json:"updatedAt"`
	ChangeCount  int           `json:"changeCount"`
	LatestChange *HistoryEntry `json:"latestChange"`
	Paused       bool          `json:"paused"`
	LastChanged  int64         `json:"-"`
}

// RemoteWatcherDetail is a remote watch with its history, newest first.
type RemoteWatcherDetail struct {
	ID        string         `json:"id"`
	URL       string         `json:"url"`
	Title     string         `json:"title"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
	Changes   []HistoryEntry `json:"changes"`
}

// Preview is the list-view excerpt of the newest snapshot. Nil means no preview is available.
type Preview struct {
	Preview *string `json:"preview"`
}
