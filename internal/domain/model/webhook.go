package model

import "time"

// WebhookEvent is a provider notification after signature verification.
// Payload is the parsed body as sent; ID and Type are lifted from it when
// present ("id", and "type" or "event").
type WebhookEvent struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type,omitempty"`
	Payload    map[string]any `json:"payload"`
	ReceivedAt time.Time      `json:"received_at"`
}

type WebhookResult struct {
	Processed bool         `json:"processed"`
	Event     WebhookEvent `json:"event"`
}
