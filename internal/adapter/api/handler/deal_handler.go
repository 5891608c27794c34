package handler

import (
	"log/slog"
	"net/http"

	"github.com/elm042025/sales-dashboard/internal/usecase"
)

// DealHandler handles HTTP requests for deal submission and listing.
type DealHandler struct {
	uc           usecase.DealUseCase
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewDealHandler creates a new DealHandler.
func NewDealHandler(uc usecase.DealUseCase, logger *slog.Logger, maxBodyBytes int64) *DealHandler {
	return &DealHandler{uc: uc, logger: logger, maxBodyBytes: maxBodyBytes}
}

// Submit records one deal on behalf of the signed-in session.
// POST /api/deals
func (h *DealHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req usecase.SubmitDealRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	deal, err := h.uc.Submit(r.Context(), session, req)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, map[string]interface{}{"deal_id": deal.ID})
}

// List returns the current quarter's deals, oldest first.
// GET /api/deals
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	deals, err := h.uc.CurrentQuarterDeals(r.Context())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, deals)
}
