package handler

import (
	"log/slog"
	"net/http"

	"github.com/elm042025/sales-dashboard/internal/usecase"
)

// ProfileHandler handles HTTP requests for rep profiles.
type ProfileHandler struct {
	uc     usecase.ProfileUseCase
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(uc usecase.ProfileUseCase, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{uc: uc, logger: logger}
}

// List returns every profile, ordered by name.
// GET /api/profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.uc.List(r.Context())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, profiles)
}
