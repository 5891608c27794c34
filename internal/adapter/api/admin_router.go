package api

import (
	"log/slog"
	"net/http"

	"github.com/elm042025/sales-dashboard/internal/adapter/api/handler"
	"github.com/elm042025/sales-dashboard/internal/usecase"
)

// NewAdminRouter creates and configures the HTTP router for feed admin
// operations. There is a single deal feed, so routes are keyed by consumer
// group only. Path patterns require Go 1.22+.
func NewAdminRouter(feedAdminUseCase *usecase.FeedAdminUseCase, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	adminHandler := handler.NewAdminHandler(feedAdminUseCase, logger)

	mux.HandleFunc("GET /healthz", adminHandler.HealthCheck)

	// Feed info
	mux.HandleFunc("GET /admin/feed/groups", adminHandler.GroupInfo)
	mux.HandleFunc("GET /admin/feed/groups/{groupName}/consumers", adminHandler.ConsumerInfo)

	// Pending entries
	mux.HandleFunc("GET /admin/feed/groups/{groupName}/pending", adminHandler.PendingSummary)
	mux.HandleFunc("GET /admin/feed/groups/{groupName}/pending/messages", adminHandler.PendingDetails)

	// Feed operations
	mux.HandleFunc("POST /admin/feed/groups/{groupName}/claim", adminHandler.ClaimStale)
	mux.HandleFunc("POST /admin/feed/trim", adminHandler.TrimFeed)

	return mux
}
