package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/models"
	"ghostwriter-backend/internal/repository"
	"ghostwriter-backend/internal/services"
)

const webhookProvider = "lemonsqueezy"

// variantCredits maps Lemon Squeezy variant IDs to granted credits.
var variantCredits = map[int64]int{
	1277381: 50,
	1295941: 1000,
}

var handledEvents = map[string]bool{
	"order_created":        true,
	"subscription_created": true,
}

// eventLedger is the dedup record for processed deliveries. Unmark
// releases a mark whose grant failed, so the provider's retry is not
// treated as a duplicate.
type eventLedger interface {
	MarkProcessed(ctx context.Context, provider, providerEventID, eventType string) (bool, error)
	Unmark(ctx context.Context, provider, providerEventID string) error
}

type WebhookHandler struct {
	secret  []byte
	credits *services.CreditService
	events  eventLedger
	logger  zerolog.Logger
}

func NewWebhookHandler(secret string, credits *services.CreditService, events eventLedger, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:  []byte(secret),
		credits: credits,
		events:  events,
		logger:  logger,
	}
}

// HandleLemonSqueezy handles POST /api/v1/webhooks/lemonsqueezy. The
// signature is checked against the raw body before any parsing happens.
func (h *WebhookHandler) HandleLemonSqueezy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if !h.verifySignature(body, r.Header.Get("X-Signature")) {
		h.logger.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature mismatch")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var event models.PaymentEvent
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&event); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	eventName := event.Meta.EventName
	if !handledEvents[eventName] {
		h.logger.Debug().Str("event", eventName).Msg("ignoring webhook event")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ignored"))
		return
	}

	ctx := r.Context()
	logger := h.logger.With().Str("event", eventName).Str("event_id", event.Data.ID).Logger()

	profile, err := h.resolveUser(ctx, &event)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, repository.ErrProfileNotFound) {
			logger.Warn().Msg("webhook user not found")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("user not found"))
			return
		}
		logger.Error().Err(err).Msg("webhook user lookup failed")
		http.Error(w, "user lookup failed", http.StatusInternalServerError)
		return
	}

	variantID := resolveVariantID(&event)
	amount, ok := variantCredits[variantID]
	if !ok {
		logger.Warn().Int64("variant_id", variantID).Msg("no credit mapping for variant")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("unmapped variant"))
		return
	}

	// First writer wins. A replayed delivery records nothing and grants
	// nothing.
	providerEventID := eventName + ":" + event.Data.ID
	fresh, err := h.events.MarkProcessed(ctx, webhookProvider, providerEventID, eventName)
	if err != nil {
		logger.Error().Err(err).Msg("webhook dedup check failed")
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}
	if !fresh {
		logger.Info().Msg("duplicate webhook delivery, skipping")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("already processed"))
		return
	}

	if err := h.credits.Grant(ctx, profile.ID, amount); err != nil {
		// Release the mark so the retry is processed, not deduplicated.
		if unmarkErr := h.events.Unmark(context.WithoutCancel(ctx), webhookProvider, providerEventID); unmarkErr != nil {
			logger.Error().Err(unmarkErr).Msg("failed to release webhook event after grant failure")
		}
		logger.Error().Err(err).Msg("credit grant failed")
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Str("user_id", profile.ID.String()).
		Int("credits", amount).
		Msg("credits granted")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// resolveUser prefers the user_id we stashed in checkout custom_data and
// falls back to the billing email.
func (h *WebhookHandler) resolveUser(ctx context.Context, event *models.PaymentEvent) (*models.Profile, error) {
	if raw := event.Meta.CustomData.UserID; raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return h.credits.FindByID(ctx, id)
		}
		h.logger.Warn().Str("user_id", raw).Msg("malformed user_id in webhook custom_data")
	}

	if email := event.Data.Attributes.UserEmail; email != "" {
		return h.credits.FindByEmail(ctx, email)
	}

	return nil, services.ErrUserNotFound
}

// resolveVariantID digs the variant out of either payload shape. Lemon
// Squeezy sends it as a number on orders and occasionally as a string on
// subscriptions.
func resolveVariantID(event *models.PaymentEvent) int64 {
	if id := parseVariant(event.Data.Attributes.FirstOrderItem.VariantID); id != 0 {
		return id
	}
	return parseVariant(event.Data.Attributes.VariantID)
}

func parseVariant(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
