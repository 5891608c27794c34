package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/adapter/repository/postgres"
	redisrepo "github.com/elm042025/sales-dashboard/internal/adapter/repository/redis"
	"github.com/elm042025/sales-dashboard/internal/pkg/config"
	"github.com/elm042025/sales-dashboard/internal/pkg/logger"
	"github.com/elm042025/sales-dashboard/internal/usecase"
)

const (
	rollupRetryCount   = 3
	rollupRetryBackoff = 500 * time.Millisecond
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting rollup worker")

	location, err := cfg.QuarterLocation()
	if err != nil {
		log.Error("invalid quarter timezone", "timezone", cfg.QuarterTimezone, "error", err)
		os.Exit(1)
	}

	m := metrics.NewServerMetrics()

	// Serve the worker's metrics on its own listener.
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", promhttp.Handler())
	metricsMux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	metricsServer := &http.Server{
		Addr:    cfg.WorkerMetricsAddr,
		Handler: metricsMux,
	}
	go func() {
		log.Info("starting worker metrics server", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("worker metrics server failed", "error", err)
		}
	}()

	// Create a context that we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stopChan
		log.Info("shutdown signal received, stopping worker...")
		cancel()
	}()

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error("failed to apply database schema", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	// Create a unique consumer name for this instance
	consumerName, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		consumerName = "worker-default"
	}

	// Instantiate repositories. The worker never publishes, so it carries
	// no outbox.
	feedRepo := redisrepo.NewFeedRepository(redisClient, log, cfg.RedisDLQStream, nil, m)
	if err := feedRepo.EnsureGroup(ctx, cfg.RollupGroup); err != nil {
		log.Error("failed to ensure consumer group", "group", cfg.RollupGroup, "error", err)
		os.Exit(1)
	}
	rollupRepo := postgres.NewRollupRepository(db, log)

	// Instantiate the use case
	processRollups := usecase.NewProcessRollupsUseCase(feedRepo, rollupRepo, m, log, location,
		cfg.RollupGroup, consumerName, cfg.RollupBatchSize, rollupRetryCount, rollupRetryBackoff)

	// Start the rollup processing loop
	ticker := time.NewTicker(cfg.RollupInterval)
	defer ticker.Stop()

	log.Info("rollup worker started, processing deal events...",
		"group", cfg.RollupGroup, "consumer", consumerName)

Loop:
	for {
		select {
		case <-ticker.C:
			if _, err := processRollups.ProcessBatch(ctx); err != nil {
				log.Error("error processing batch", "error", err)
			}
		case <-ctx.Done():
			log.Info("context cancelled, shutting down rollup loop")
			break Loop
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("worker metrics server shutdown failed", "error", err)
	}

	log.Info("rollup worker shut down gracefully")
}
