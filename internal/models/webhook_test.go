package models_test

import (
	"testing"

	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWebhook(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTitle string
		wantErr   error
		wantErrIn string
	}{
		{name: "bare object", body: `{"title":"A","message":"m"}`, wantTitle: "A"},
		{name: "single-element array", body: ` [{"title":"B","message":"m"}] `, wantTitle: "B"},
		{name: "relay envelope", body: `[{"headers":{"x":"y"},"body":{"title":"C","message":"m"}}]`, wantTitle: "C"},
		{name: "empty array", body: `[]`, wantErr: models.ErrEmptyPayload},
		{name: "missing message", body: `{"title":"D"}`, wantErr: models.ErrMissingMessage},
		{name: "malformed object", body: `{"title":`, wantErrIn: "failed to decode webhook payload"},
		{name: "malformed array", body: `[{"title":"E"`, wantErrIn: "failed to decode webhook array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := models.DecodeWebhook([]byte(tt.body))

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrIn != "":
				require.ErrorContains(t, err, tt.wantErrIn)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantTitle, payload.Title)
			}
		})
	}
}

func TestWebhookPayload_Screenshot(t *testing.T) {
	payload := &models.WebhookPayload{Attachments: []models.Attachment{
		{Filename: "empty.png"},
		{Filename: "last.png", Base64: "aGVsbG8=", Mimetype: "image/png"},
	}}

	shot, ok := payload.Screenshot()

	require.True(t, ok)
	assert.Equal(t, "last.png", shot.Filename)

	_, ok = (&models.WebhookPayload{}).Screenshot()
	assert.False(t, ok)
}

func TestNewHistoryEntry(t *testing.T) {
	entry := models.NewHistoryEntry(1700000000)

	assert.Equal(t, "1700000000", entry.ID)
	assert.Equal(t, int64(1700000000), entry.Timestamp)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", entry.CreatedAt)
}
