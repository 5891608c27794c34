package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/elm042025/sales-dashboard/internal/adapter/api"
	"github.com/elm042025/sales-dashboard/internal/adapter/api/handler"
	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/adapter/repository/outbox"
	"github.com/elm042025/sales-dashboard/internal/adapter/repository/postgres"
	redisrepo "github.com/elm042025/sales-dashboard/internal/adapter/repository/redis"
	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/pkg/config"
	"github.com/elm042025/sales-dashboard/internal/pkg/logger"
	"github.com/elm042025/sales-dashboard/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

const (
	feedHealthCheckInterval = 5 * time.Second
	resyncBaseBackoff       = 1 * time.Second
	resyncMaxBackoff        = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	location, err := cfg.QuarterLocation()
	if err != nil {
		logger.Error("invalid quarter timezone", "timezone", cfg.QuarterTimezone, "error", err)
		os.Exit(1)
	}

	m := metrics.NewServerMetrics()

	// --- Start Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("GET /metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database and Redis Connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		logger.Error("failed to apply database schema", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		logger.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("could not connect to redis, publishes will fall back to the outbox", "error", err)
	}

	// --- Initialize Repositories ---
	outboxRepo, err := outbox.NewOutboxRepository(cfg.OutboxPath, cfg.OutboxSegmentSize, cfg.OutboxMaxSize, logger)
	if err != nil {
		logger.Error("failed to initialize outbox repository", "error", err)
		os.Exit(1)
	}
	defer outboxRepo.Close()

	feedRepo := redisrepo.NewFeedRepository(redisClient, logger, cfg.RedisDLQStream, outboxRepo, m)

	// Start Redis health check and outbox replay loop
	go feedRepo.StartHealthCheck(ctx, feedHealthCheckInterval)

	profileRepo := postgres.NewProfileRepository(db)
	dealRepo := postgres.NewDealRepository(db, logger)
	rollupRepo := postgres.NewRollupRepository(db, logger)
	sessionRepo := redisrepo.NewSessionRepository(redisClient)
	confirmRepo := redisrepo.NewConfirmationRepository(redisClient)

	// --- Initialize Admin API ---
	feedAdminRepo := redisrepo.NewAdminRepository(redisClient, logger)
	feedAdminUseCase := usecase.NewFeedAdminUseCase(feedAdminRepo)
	adminRouter := api.NewAdminRouter(feedAdminUseCase, logger)
	adminMux.Handle("/", adminRouter) // Mount admin router at the root of the admin server

	// --- Initialize Use Cases and Services ---
	authUseCase := usecase.NewAuthService(profileRepo, sessionRepo, confirmRepo, m, logger,
		cfg.JWTSecret, cfg.SessionTTL, cfg.ConfirmTokenTTL)
	dealUseCase := usecase.NewDealService(dealRepo, feedRepo, m, logger, location)
	profileUseCase := usecase.NewProfileService(profileRepo)
	historyUseCase := usecase.NewHistoryService(rollupRepo, location)

	// --- Initialize Dashboard View and SSE Broker ---
	sseBroker := handler.NewSSEBroker(logger, m)
	supervisor := &dashboardSupervisor{
		dealRepo:    dealRepo,
		profileRepo: profileRepo,
		subscriber:  feedRepo,
		metrics:     m,
		logger:      logger,
		location:    location,
		broker:      sseBroker,
	}
	go supervisor.run(ctx)

	// --- Initialize API Server ---
	apiRouter := api.NewRouter(cfg, logger, m, sessionRepo,
		authUseCase, dealUseCase, profileUseCase, historyUseCase,
		supervisor.snapshot, sseBroker)
	apiServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiRouter,
		ReadTimeout: 5 * time.Second,
		// No WriteTimeout: the dashboard stream holds its response open for
		// the lifetime of the client.
		IdleTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting api server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}

// dashboardSupervisor owns the live dashboard view. A view is good for one
// subscription; when the feed drops the supervisor disposes it and builds a
// fresh one, which re-reads the store and so heals any missed events.
type dashboardSupervisor struct {
	dealRepo    domain.DealRepository
	profileRepo domain.ProfileRepository
	subscriber  domain.DealSubscriber
	metrics     *metrics.ServerMetrics
	logger      *slog.Logger
	location    *time.Location
	broker      *handler.SSEBroker

	current atomic.Pointer[usecase.DashboardView]
}

// snapshot serves reads from whichever view is currently installed.
func (s *dashboardSupervisor) snapshot() domain.DashboardSnapshot {
	if view := s.current.Load(); view != nil {
		return view.Snapshot()
	}
	return domain.DashboardSnapshot{Status: domain.DashboardStale}
}

func (s *dashboardSupervisor) run(ctx context.Context) {
	backoff := resyncBaseBackoff
	for {
		view := usecase.NewDashboardView(s.dealRepo, s.profileRepo, s.subscriber,
			s.metrics, s.logger, s.location, s.broker.Publish)

		if err := view.Initialize(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("dashboard view initialization failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > resyncMaxBackoff {
				backoff = resyncMaxBackoff
			}
			continue
		}
		backoff = resyncBaseBackoff
		s.current.Store(view)

		select {
		case <-ctx.Done():
			view.Dispose()
			return
		case <-view.Disconnected():
			s.logger.Warn("dashboard feed dropped, resyncing")
			view.Dispose()
		}
	}
}
