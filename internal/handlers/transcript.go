package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/middleware"
	"ghostwriter-backend/internal/models"
	"ghostwriter-backend/internal/services"
)

type TranscriptHandler struct {
	transcripts *services.TranscriptService
	logger      zerolog.Logger
}

func NewTranscriptHandler(transcripts *services.TranscriptService, logger zerolog.Logger) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts, logger: logger}
}

// Fetch handles POST /api/v1/transcript.
func (h *TranscriptHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req models.TranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResp(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if strings.TrimSpace(req.URL) == "" {
		errorRespWithFields(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed",
			map[string]string{"url": "url is required"})
		return
	}

	userID := middleware.GetUserID(r.Context())
	requestID := r.Header.Get("X-Request-ID")

	transcript, err := h.transcripts.Fetch(r.Context(), req.URL, userID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVideoNotFound):
			errorResp(w, r, http.StatusBadRequest, "INVALID_URL", "Could not extract a video ID from the URL")
		case errors.Is(err, services.ErrVideoTooLong):
			errorResp(w, r, http.StatusBadRequest, "VIDEO_TOO_LONG", "Video exceeds the maximum supported duration")
		case errors.Is(err, services.ErrNoSpeech):
			errorResp(w, r, http.StatusUnprocessableEntity, "NO_SPEECH", "No speech detected in the audio")
		default:
			h.logger.Error().Err(err).Str("request_id", requestID).Msg("transcript fetch failed")
			errorResp(w, r, http.StatusInternalServerError, "TRANSCRIPT_FAILED", "Failed to fetch transcript")
		}
		return
	}

	writeJSON(w, http.StatusOK, models.TranscriptResponse{Transcript: transcript})
}
