package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/elm042025/sales-dashboard/internal/usecase"
)

// AdminHandler handles HTTP requests for change feed administration on the
// internal listener.
type AdminHandler struct {
	uc     *usecase.FeedAdminUseCase
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(uc *usecase.FeedAdminUseCase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{uc: uc, logger: logger}
}

// HealthCheck is a simple health check endpoint.
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// GroupInfo handles requests to get consumer group info for the deal feed.
// GET /admin/feed/groups
func (h *AdminHandler) GroupInfo(w http.ResponseWriter, r *http.Request) {
	groups, err := h.uc.GroupInfo(r.Context())
	if err != nil {
		h.logger.Error("failed to get group info", "error", err)
		writeErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, groups)
}

// ConsumerInfo handles requests to get consumer info for a group.
// GET /admin/feed/groups/{groupName}/consumers
func (h *AdminHandler) ConsumerInfo(w http.ResponseWriter, r *http.Request) {
	groupName := r.PathValue("groupName")

	consumers, err := h.uc.ConsumerInfo(r.Context(), groupName)
	if err != nil {
		h.logger.Error("failed to get consumer info", "error", err)
		writeErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, consumers)
}

// PendingSummary handles requests to get a summary of unacknowledged events.
// GET /admin/feed/groups/{groupName}/pending
func (h *AdminHandler) PendingSummary(w http.ResponseWriter, r *http.Request) {
	groupName := r.PathValue("groupName")

	summary, err := h.uc.PendingSummary(r.Context(), groupName)
	if err != nil {
		h.logger.Error("failed to get pending summary", "error", err)
		writeErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, summary)
}

// PendingDetails handles requests to list unacknowledged events.
// GET /admin/feed/groups/{groupName}/pending/messages?consumer={name}&start={id}&count={n}
func (h *AdminHandler) PendingDetails(w http.ResponseWriter, r *http.Request) {
	groupName := r.PathValue("groupName")
	consumerName := r.URL.Query().Get("consumer")
	startID := r.URL.Query().Get("start")
	countStr := r.URL.Query().Get("count")

	var count int64 = 100 // default
	if countStr != "" {
		var err error
		count, err = strconv.ParseInt(countStr, 10, 64)
		if err != nil {
			writeErrorKind(w, http.StatusBadRequest, "validation", "invalid count parameter")
			return
		}
	}

	details, err := h.uc.PendingDetails(r.Context(), groupName, consumerName, startID, count)
	if err != nil {
		h.logger.Error("failed to get pending details", "error", err)
		writeErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, details)
}

// ClaimStale handles requests to claim events from a dead consumer.
// POST /admin/feed/groups/{groupName}/claim
func (h *AdminHandler) ClaimStale(w http.ResponseWriter, r *http.Request) {
	groupName := r.PathValue("groupName")

	var payload struct {
		Consumer    string   `json:"consumer"`
		MinIdleTime string   `json:"min_idle_time"`
		EntryIDs    []string `json:"entry_ids"`
	}
	if !decodeJSON(w, r, 1<<20, &payload) {
		return
	}

	minIdle, err := time.ParseDuration(payload.MinIdleTime)
	if err != nil {
		writeErrorKind(w, http.StatusBadRequest, "validation", "invalid min_idle_time format")
		return
	}

	claimed, err := h.uc.ClaimStale(r.Context(), groupName, payload.Consumer, minIdle, payload.EntryIDs)
	if err != nil {
		h.logger.Error("failed to claim stale events", "error", err)
		writeErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, claimed)
}

// TrimFeed handles requests to bound the feed's length.
// POST /admin/feed/trim
func (h *AdminHandler) TrimFeed(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		MaxLen int64 `json:"maxlen"`
	}
	if !decodeJSON(w, r, 1<<20, &payload) {
		return
	}
	if payload.MaxLen <= 0 {
		writeErrorKind(w, http.StatusBadRequest, "validation", "maxlen must be a positive integer")
		return
	}

	trimmed, err := h.uc.TrimFeed(r.Context(), payload.MaxLen)
	if err != nil {
		h.logger.Error("failed to trim feed", "error", err)
		writeErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]int64{"trimmed": trimmed})
}
