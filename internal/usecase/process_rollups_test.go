package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/domain/mocks"
)

func TestProcessRollupsUseCase_ProcessBatch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repA, repB := uuid.New(), uuid.New()
	now := time.Now().UTC()

	testDeals := []domain.Deal{
		{ID: uuid.New(), RepID: repA, Value: 100, CreatedAt: now, StreamID: "msg1"},
		{ID: uuid.New(), RepID: repB, Value: 200, CreatedAt: now, StreamID: "msg2"},
	}

	newUC := func(feed *mocks.MockDealBatchReader, rollups *mocks.MockRollupRepository, retries int) *ProcessRollupsUseCase {
		return NewProcessRollupsUseCase(feed, rollups, testMetrics, logger, time.UTC,
			"group", "consumer", 100, retries, 1*time.Millisecond)
	}

	t.Run("Successful Processing", func(t *testing.T) {
		feed := &mocks.MockDealBatchReader{Batches: [][]domain.Deal{testDeals}}
		rollups := &mocks.MockRollupRepository{}
		uc := newUC(feed, rollups, 3)

		count, err := uc.ProcessBatch(context.Background())

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != len(testDeals) {
			t.Errorf("expected processed count to be %d, got %d", len(testDeals), count)
		}
		if len(rollups.Recomputed) != 1 {
			t.Fatalf("expected 1 recompute call, got %d", len(rollups.Recomputed))
		}
		if len(rollups.Recomputed[0]) != 2 {
			t.Errorf("expected 2 rollup keys, got %d", len(rollups.Recomputed[0]))
		}
		if len(feed.AckedIDs) != 2 {
			t.Errorf("expected 2 messages to be acked, got %d", len(feed.AckedIDs))
		}
		if len(feed.DeadLettered) != 0 {
			t.Errorf("expected 0 dead-lettered deals, got %d", len(feed.DeadLettered))
		}
	})

	t.Run("Keys Deduplicated Per Rep And Quarter", func(t *testing.T) {
		sameRep := []domain.Deal{
			{ID: uuid.New(), RepID: repA, Value: 100, CreatedAt: now, StreamID: "msg1"},
			{ID: uuid.New(), RepID: repA, Value: 300, CreatedAt: now, StreamID: "msg2"},
			{ID: uuid.New(), RepID: repA, Value: 500, CreatedAt: now, StreamID: "msg3"},
		}
		feed := &mocks.MockDealBatchReader{Batches: [][]domain.Deal{sameRep}}
		rollups := &mocks.MockRollupRepository{}
		uc := newUC(feed, rollups, 3)

		if _, err := uc.ProcessBatch(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(rollups.Recomputed) != 1 || len(rollups.Recomputed[0]) != 1 {
			t.Fatalf("expected a single deduplicated key, got %+v", rollups.Recomputed)
		}
		key := rollups.Recomputed[0][0]
		if key.RepID != repA {
			t.Errorf("unexpected rep in key: %v", key.RepID)
		}
		if len(feed.AckedIDs) != 3 {
			t.Errorf("expected all 3 messages acked, got %d", len(feed.AckedIDs))
		}
	})

	t.Run("Recompute Failure with Retry and DLQ", func(t *testing.T) {
		feed := &mocks.MockDealBatchReader{Batches: [][]domain.Deal{testDeals}}
		rollups := &mocks.MockRollupRepository{RecomputeErr: errors.New("database is down")}
		uc := newUC(feed, rollups, 2)

		count, err := uc.ProcessBatch(context.Background())

		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if count != 0 {
			t.Errorf("expected processed count to be 0, got %d", count)
		}
		if len(feed.DeadLettered) != 2 {
			t.Errorf("expected 2 deals in the dead letter stream, got %d", len(feed.DeadLettered))
		}
		// Messages are acked even when parked so the group is not wedged.
		if len(feed.AckedIDs) != 2 {
			t.Errorf("expected 2 messages to be acked, got %d", len(feed.AckedIDs))
		}
	})

	t.Run("Dead Letter Failure Leaves Batch Unacked", func(t *testing.T) {
		feed := &mocks.MockDealBatchReader{
			Batches: [][]domain.Deal{testDeals},
			DLQErr:  errors.New("dlq unavailable"),
		}
		rollups := &mocks.MockRollupRepository{RecomputeErr: errors.New("database is down")}
		uc := newUC(feed, rollups, 1)

		_, err := uc.ProcessBatch(context.Background())

		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if len(feed.AckedIDs) != 0 {
			t.Error("batch must stay unacked when dead-lettering fails")
		}
	})

	t.Run("Feed Read Error", func(t *testing.T) {
		feed := &mocks.MockDealBatchReader{ReadErr: errors.New("redis connection failed")}
		uc := newUC(feed, &mocks.MockRollupRepository{}, 3)

		count, err := uc.ProcessBatch(context.Background())

		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if count != 0 {
			t.Errorf("expected processed count to be 0, got %d", count)
		}
	})

	t.Run("No Events to Process", func(t *testing.T) {
		feed := &mocks.MockDealBatchReader{}
		rollups := &mocks.MockRollupRepository{}
		uc := newUC(feed, rollups, 3)

		count, err := uc.ProcessBatch(context.Background())

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != 0 {
			t.Errorf("expected processed count to be 0, got %d", count)
		}
		if len(rollups.Recomputed) != 0 {
			t.Error("recompute should not be called with no events")
		}
	})
}
