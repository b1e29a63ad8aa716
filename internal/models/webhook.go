package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingMessage is returned when a payload carries no message text.
	ErrMissingMessage = errors.New("webhook payload has no message")
	// ErrEmptyPayload is returned for an empty array payload.
	ErrEmptyPayload = errors.New("webhook payload is empty")
)

// WebhookPayload is a changedetection.io notification as posted to /api/webhook.
type WebhookPayload struct {
	Version     string       `json:"version"`
	Title       string       `json:"title"`
	Message     string       `json:"message"`
	Type        string       `json:"type"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is a file attached to a notification, usually the last screenshot.
type Attachment struct {
	Filename string `json:"filename"`
	Base64   string `json:"base64"`
	Mimetype string `json:"mimetype"`
}

// Screenshot returns the first attachment that carries data.
func (p *WebhookPayload) Screenshot() (Attachment, bool) {
	for _, a := range p.Attachments {
		if a.Base64 != "" {
			return a, true
		}
	}

	return Attachment{}, false
}

// envelope is the relay wrapper some automation tools put around the notification.
type envelope struct {
	Body *WebhookPayload `json:"body"`
}

// DecodeWebhook decodes a notification body. It accepts a bare object, a
// single-element array, and either of those wrapped in a {"body": {...}} envelope.
func DecodeWebhook(data []byte) (*WebhookPayload, error) {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to decode webhook array: %w", err)
		}
		if len(items) == 0 {
			return nil, ErrEmptyPayload
		}
		data = items[0]
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	payload := env.Body
	if payload == nil {
		payload = &WebhookPayload{}
		if err := json.Unmarshal(data, payload); err != nil {
			return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
		}
	}

	if payload.Message == "" {
		return nil, ErrMissingMessage
	}

	return payload, nil
}
