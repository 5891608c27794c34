package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/quarter"
)

const defaultRollupBatchSize = 500

// ProcessRollupsUseCase drains the change feed through a consumer group and
// refreshes the quarter totals the events touch. Totals are recomputed from
// the deals table rather than incremented, so redelivered events cannot
// skew them.
type ProcessRollupsUseCase struct {
	feedRepo     domain.DealBatchReader
	rollupRepo   domain.RollupRepository
	metrics      *metrics.ServerMetrics
	logger       *slog.Logger
	location     *time.Location
	group        string
	consumer     string
	batchSize    int
	retryCount   int
	retryBackoff time.Duration
}

// NewProcessRollupsUseCase creates a new use case for rolling up deals.
func NewProcessRollupsUseCase(
	feedRepo domain.DealBatchReader,
	rollupRepo domain.RollupRepository,
	m *metrics.ServerMetrics,
	logger *slog.Logger,
	location *time.Location,
	group, consumer string,
	batchSize, retryCount int,
	retryBackoff time.Duration,
) *ProcessRollupsUseCase {
	if batchSize <= 0 {
		batchSize = defaultRollupBatchSize
	}
	return &ProcessRollupsUseCase{
		feedRepo:     feedRepo,
		rollupRepo:   rollupRepo,
		metrics:      m,
		logger:       logger,
		location:     location,
		group:        group,
		consumer:     consumer,
		batchSize:    batchSize,
		retryCount:   retryCount,
		retryBackoff: retryBackoff,
	}
}

// ProcessBatch reads one batch of deal events, recomputes the quarter
// totals they touch and acknowledges them. A batch that keeps failing is
// parked in the dead letter stream, acknowledged and reported as an error;
// leaving it unacked would wedge the group on a poison batch.
func (uc *ProcessRollupsUseCase) ProcessBatch(ctx context.Context) (int, error) {
	deals, err := uc.feedRepo.ReadBatch(ctx, uc.group, uc.consumer, uc.batchSize)
	if err != nil {
		uc.logger.Error("failed to read deal batch from feed", "error", err)
		return 0, err
	}

	if len(deals) == 0 {
		return 0, nil // No new events, not an error
	}

	uc.logger.Debug("read deal batch from feed", "count", len(deals))

	keys := uc.rollupKeys(deals)

	recomputeErr := uc.recomputeWithRetry(ctx, keys)
	if recomputeErr != nil {
		uc.logger.Error("failed to recompute totals after retries, dead-lettering batch", "error", recomputeErr)
		if dlqErr := uc.feedRepo.MoveToDeadLetter(ctx, deals); dlqErr != nil {
			uc.logger.Error("failed to move batch to dead letter stream", "error", dlqErr)
			// Not acked either, so the group redelivers the batch later.
			return 0, dlqErr
		}
		uc.metrics.RollupDeadLetters.Add(float64(len(deals)))
	}

	streamIDs := make([]string, len(deals))
	for i, deal := range deals {
		streamIDs[i] = deal.StreamID
	}

	if err := uc.feedRepo.Acknowledge(ctx, uc.group, streamIDs...); err != nil {
		uc.logger.Error("failed to acknowledge deal batch", "error", err)
		// The totals are already recomputed. Redelivery recomputes the same
		// values again, which is safe.
		return 0, err
	}

	if recomputeErr != nil {
		return 0, recomputeErr
	}

	uc.metrics.RollupBatches.Inc()
	uc.logger.Info("rolled up deal batch", "count", len(deals), "keys", len(keys))
	return len(deals), nil
}

// rollupKeys returns the distinct (rep, quarter) pairs the batch touches.
func (uc *ProcessRollupsUseCase) rollupKeys(deals []domain.Deal) []domain.RollupKey {
	seen := make(map[domain.RollupKey]struct{}, len(deals))
	keys := make([]domain.RollupKey, 0, len(deals))
	for _, deal := range deals {
		start, _ := quarter.Bounds(deal.CreatedAt.In(uc.location))
		key := domain.RollupKey{RepID: deal.RepID, QuarterStart: start}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

func (uc *ProcessRollupsUseCase) recomputeWithRetry(ctx context.Context, keys []domain.RollupKey) error {
	var lastErr error
	for i := 0; i < uc.retryCount; i++ {
		err := uc.rollupRepo.Recompute(ctx, keys)
		if err == nil {
			return nil // Success
		}
		lastErr = err
		uc.logger.Warn("failed to recompute totals, retrying...", "attempt", i+1, "error", err)
		select {
		case <-time.After(uc.retryBackoff):
			// continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
