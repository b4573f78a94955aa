package models

import (
	"encoding/json"
	"time"
)

// PaymentEvent mirrors the subset of the Lemon Squeezy webhook payload the
// credit ledger cares about. VariantID arrives either as a number or a
// string depending on the event shape, hence the RawMessage fields.
type PaymentEvent struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			UserID string `json:"user_id"`
		} `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			UserEmail      string          `json:"user_email"`
			VariantID      json.RawMessage `json:"variant_id"`
			FirstOrderItem struct {
				VariantID json.RawMessage `json:"variant_id"`
			} `json:"first_order_item"`
		} `json:"attributes"`
	} `json:"data"`
}

// WebhookEvent records a processed provider event: the
// (provider, provider_event_id) pair is unique, so a replayed delivery
// never grants credits twice.
type WebhookEvent struct {
	ID              int64     `json:"id"`
	Provider        string    `json:"provider"`
	ProviderEventID string    `json:"provider_event_id"`
	EventType       string    `json:"event_type"`
	ProcessedAt     time.Time `json:"processed_at"`
}
