package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type WebhookEventRepo struct {
	pool *pgxpool.Pool
}

func NewWebhookEventRepo(pool *pgxpool.Pool) *WebhookEventRepo {
	return &WebhookEventRepo{pool: pool}
}

// MarkProcessed records the provider event id and reports whether this
// call was the first to do so. A unique index on (provider,
// provider_event_id) makes the insert the idempotency barrier: only the
// request that actually inserted the row may apply the business effect,
// so a duplicate delivery never credits a balance twice.
func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, provider, providerEventID, eventType string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_events (provider, provider_event_id, event_type, processed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (provider, provider_event_id) DO NOTHING
	`, provider, providerEventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Unmark releases a dedup record whose business effect could not be
// applied. Without it a failed grant would leave the event marked, and
// the provider's retry would be swallowed as a duplicate.
func (r *WebhookEventRepo) Unmark(ctx context.Context, provider, providerEventID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM webhook_events WHERE provider = $1 AND provider_event_id = $2`,
		provider, providerEventID)
	if err != nil {
		return fmt.Errorf("failed to release webhook event: %w", err)
	}
	return nil
}
