package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/middleware"
	"ghostwriter-backend/internal/models"
	"ghostwriter-backend/internal/services"
)

// postGenerator is the streaming generation service. A nil return means
// the stream reached its terminal end and the run may be settled.
type postGenerator interface {
	Generate(ctx context.Context, req services.GenerationRequest, out io.Writer, flush func()) error
}

type GhostwriteHandler struct {
	writer  postGenerator
	credits *services.CreditService
	logger  zerolog.Logger
}

func NewGhostwriteHandler(writer postGenerator, credits *services.CreditService, logger zerolog.Logger) *GhostwriteHandler {
	return &GhostwriteHandler{writer: writer, credits: credits, logger: logger}
}

// Generate handles POST /api/v1/ghostwrite. The response body is the raw
// token stream; a credit is consumed only after the stream ends cleanly.
func (h *GhostwriteHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GhostwriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResp(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		errorRespWithFields(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed",
			map[string]string{"prompt": "prompt is required"})
		return
	}

	userID := middleware.GetUserID(r.Context())

	// Identity comes from the token. A userId in the body is accepted only
	// when it matches, so a client cannot spend another account's credits.
	if req.UserID != "" && req.UserID != userID.String() {
		errorResp(w, r, http.StatusForbidden, "FORBIDDEN", "userId does not match the authenticated user")
		return
	}

	profile, err := h.credits.Authorize(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			errorResp(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown user")
		case errors.Is(err, services.ErrInsufficientCredits):
			errorResp(w, r, http.StatusForbidden, "NO_CREDITS", "No credits remaining")
		default:
			h.logger.Error().Err(err).Msg("credit authorization failed")
			errorResp(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check credits")
		}
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		errorResp(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	genReq := services.GenerationRequest{
		Transcript:   req.Prompt,
		VoiceProfile: req.VoiceProfile,
		Audience:     req.Audience,
	}

	if err := h.writer.Generate(r.Context(), genReq, w, flusher.Flush); err != nil {
		// Headers are gone; the client sees a truncated stream. No credit
		// is consumed for an incomplete run.
		h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("generation ended without completing")
		return
	}

	// The stream reached its terminal end, so the charge stands even if
	// the client hangs up while we record it.
	h.credits.Settle(context.WithoutCancel(r.Context()), profile)
}
