package handler

import (
	"log/slog"
	"net/http"

	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/usecase"
)

// DashboardHandler serves the aggregated dashboard reads. The snapshot
// source is a function because the live view is replaced wholesale on every
// resync; the handler must always read through to the current one.
type DashboardHandler struct {
	snapshot func() domain.DashboardSnapshot
	history  usecase.HistoryUseCase
	logger   *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(snapshot func() domain.DashboardSnapshot, history usecase.HistoryUseCase, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{snapshot: snapshot, history: history, logger: logger}
}

// Summary returns the latest dashboard snapshot. Never blocks on the event
// loop, so it stays fast under feed churn.
// GET /api/dashboard/summary
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, h.logger, http.StatusOK, h.snapshot())
}

// History returns the materialized totals for one quarter. An empty
// quarter parameter means the current one.
// GET /api/dashboard/history?quarter=2026-Q2
func (h *DashboardHandler) History(w http.ResponseWriter, r *http.Request) {
	totals, err := h.history.TotalsForQuarter(r.Context(), r.URL.Query().Get("quarter"))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, totals)
}
