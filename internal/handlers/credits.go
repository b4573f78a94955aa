package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/middleware"
	"ghostwriter-backend/internal/models"
	"ghostwriter-backend/internal/services"
)

type CreditsHandler struct {
	credits *services.CreditService
	logger  zerolog.Logger
}

func NewCreditsHandler(credits *services.CreditService, logger zerolog.Logger) *CreditsHandler {
	return &CreditsHandler{credits: credits, logger: logger}
}

// Get handles GET /api/v1/credits.
func (h *CreditsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.credits.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			errorResp(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown user")
			return
		}
		h.logger.Error().Err(err).Msg("credit lookup failed")
		errorResp(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load credits")
		return
	}

	writeJSON(w, http.StatusOK, models.CreditsResponse{
		Credits: profile.Credits,
		Role:    profile.Role,
	})
}
