package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/elm042025/sales-dashboard/internal/adapter/api/handler"
	"github.com/elm042025/sales-dashboard/internal/adapter/api/middleware"
	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/pkg/config"
	"github.com/elm042025/sales-dashboard/internal/usecase"
)

// NewRouter creates and configures the main HTTP router for the API server.
// The snapshot function reads the currently installed dashboard view; it is
// a function because the view is replaced wholesale on every resync.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	m *metrics.ServerMetrics,
	sessionRepo domain.SessionRepository,
	authUseCase usecase.AuthUseCase,
	dealUseCase usecase.DealUseCase,
	profileUseCase usecase.ProfileUseCase,
	historyUseCase usecase.HistoryUseCase,
	snapshot func() domain.DashboardSnapshot,
	stream *handler.SSEBroker,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	// Handlers
	authHandler := handler.NewAuthHandler(authUseCase, logger, cfg.MaxBodyBytes)
	dealHandler := handler.NewDealHandler(dealUseCase, logger, cfg.MaxBodyBytes)
	profileHandler := handler.NewProfileHandler(profileUseCase, logger)
	dashboardHandler := handler.NewDashboardHandler(snapshot, historyUseCase, logger)

	// Middleware
	authMiddleware := middleware.Auth(sessionRepo, m, logger, cfg.JWTSecret)

	// Public routes
	r.Post("/api/auth/signup", authHandler.SignUp)
	r.Get("/api/auth/confirm", authHandler.ConfirmEmail)
	r.Post("/api/auth/signin", authHandler.SignIn)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Guarded routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/api/auth/signout", authHandler.SignOut)
		r.Get("/api/auth/me", authHandler.Me)

		r.Post("/api/deals", dealHandler.Submit)
		r.Get("/api/deals", dealHandler.List)

		r.Get("/api/profiles", profileHandler.List)

		r.Get("/api/dashboard/summary", dashboardHandler.Summary)
		r.Get("/api/dashboard/stream", stream.ServeHTTP)
		r.Get("/api/dashboard/history", dashboardHandler.History)
	})

	return r
}
