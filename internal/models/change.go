package models

import "time"

// Change is one detected difference event for a Watcher.
// Optional string fields are empty when the webhook did not carry them.
type Change struct {
	ID                 int64     `json:"id"`
	WatcherID          int64     `json:"watcherId"`
	Title              string    `json:"title"`
	Message            string    `json:"message"`
	WatchURL           string    `json:"watchUrl,omitempty"`
	DiffURL            string    `json:"diffUrl,omitempty"`
	EditURL            string    `json:"editUrl,omitempty"`
	ScreenshotBase64   string    `json:"screenshotBase64,omitempty"`
	ScreenshotMimetype string    `json:"screenshotMimetype,omitempty"`
	ChangeType         string    `json:"changeType,omitempty"`
	OldValue           string    `json:"oldValue,omitempty"`
	NewValue           string    `json:"newValue,omitempty"`
	WebhookData        string    `json:"webhookData,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// MessageFields are the structured values pulled out of a notification message.
type MessageFields struct {
	WatchURL string
	DiffURL  string
	EditURL  string
	OldValue string
	NewValue string
	// WatcherUUID is the changedetection.io watch id found in the edit or diff link.
	WatcherUUID string
}

// IngestResult is returned to the webhook caller.
type IngestResult struct {
	Success        bool  `json:"success"`
	WatcherID      int64 `json:"watcherId"`
	ChangeID       int64 `json:"changeId"`
	WatcherCreated bool  `json:"watcherCreated"`
}
