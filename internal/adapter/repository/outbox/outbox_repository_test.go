package outbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

func setupTestOutbox(t *testing.T, maxSegmentSize, maxTotalSize int64) (*OutboxRepository, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "outbox_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ob, err := NewOutboxRepository(dir, maxSegmentSize, maxTotalSize, logger)
	if err != nil {
		t.Fatalf("failed to create OutboxRepository: %v", err)
	}

	cleanup := func() {
		ob.Close()
		os.RemoveAll(dir)
	}

	return ob, cleanup
}

func TestOutbox_WriteAndReplay(t *testing.T) {
	ob, cleanup := setupTestOutbox(t, 1024, 10*1024)
	defer cleanup()

	deals := []domain.Deal{
		{ID: uuid.New(), RepID: uuid.New(), Value: 100},
		{ID: uuid.New(), RepID: uuid.New(), Value: 250},
		{ID: uuid.New(), RepID: uuid.New(), Value: 999},
	}

	for _, deal := range deals {
		if err := ob.Write(context.Background(), deal); err != nil {
			t.Fatalf("failed to write deal: %v", err)
		}
	}
	ob.Close() // Close to ensure data is flushed

	// Re-open the outbox to simulate a restart
	var err error
	ob, err = NewOutboxRepository(ob.dir, 1024, 10*1024, ob.logger)
	if err != nil {
		t.Fatalf("failed to re-open outbox: %v", err)
	}

	var replayed []domain.Deal
	replayHandler := func(deal domain.Deal) error {
		replayed = append(replayed, deal)
		return nil
	}

	if err := ob.Replay(context.Background(), replayHandler); err != nil {
		t.Fatalf("failed to replay deals: %v", err)
	}

	if len(replayed) != len(deals) {
		t.Fatalf("expected %d replayed deals, got %d", len(deals), len(replayed))
	}

	for i, deal := range deals {
		if replayed[i].ID != deal.ID || replayed[i].Value != deal.Value {
			t.Errorf("replayed deal mismatch at index %d: got %+v, want %+v", i, replayed[i], deal)
		}
	}
}

func TestOutbox_SegmentRotation(t *testing.T) {
	// Set a very small segment size to force rotation
	ob, cleanup := setupTestOutbox(t, 100, 1024)
	defer cleanup()

	deal := domain.Deal{ID: uuid.New(), RepID: uuid.New(), Value: 123456789}
	dealBytes, _ := json.Marshal(deal)
	dealSize := len(dealBytes)

	// Write enough deals to create at least 2 segments
	numWrites := (100 / dealSize) + 2
	for i := 0; i < numWrites; i++ {
		if err := ob.Write(context.Background(), deal); err != nil {
			t.Fatalf("failed to write deal: %v", err)
		}
	}

	segments, err := ob.getSortedSegments()
	if err != nil {
		t.Fatalf("failed to get segments: %v", err)
	}

	if len(segments) < 2 {
		t.Errorf("expected at least 2 segments, got %d", len(segments))
	}
}

func TestOutbox_Truncate(t *testing.T) {
	ob, cleanup := setupTestOutbox(t, 1024, 1024)
	defer cleanup()

	deal := domain.Deal{ID: uuid.New(), RepID: uuid.New(), Value: 42}
	if err := ob.Write(context.Background(), deal); err != nil {
		t.Fatalf("failed to write deal: %v", err)
	}

	segments, _ := ob.getSortedSegments()
	if len(segments) == 0 {
		t.Fatal("expected at least one segment before truncate")
	}

	if err := ob.Truncate(context.Background()); err != nil {
		t.Fatalf("failed to truncate outbox: %v", err)
	}

	segments, _ = ob.getSortedSegments()
	if len(segments) != 1 { // Truncate creates a new empty segment
		t.Errorf("expected 1 segment after truncate, got %d", len(segments))
	}
	info, _ := os.Stat(segments[0])
	if info.Size() != 0 {
		t.Errorf("expected new segment to be empty, size is %d", info.Size())
	}
}

func TestOutbox_MaxTotalSize(t *testing.T) {
	ob, cleanup := setupTestOutbox(t, 100, 150) // Max total size is very small
	defer cleanup()

	deal := domain.Deal{ID: uuid.New(), RepID: uuid.New(), Value: 987654321}
	var err error
	for i := 0; i < 5; i++ { // Write until we expect an error
		err = ob.Write(context.Background(), deal)
		if err != nil {
			break
		}
	}

	if err == nil {
		t.Fatal("expected an error when writing beyond max total size, but got nil")
	}
}
