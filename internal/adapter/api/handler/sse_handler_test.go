package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

// streamRecorder is a flushable ResponseWriter safe to read while the
// streaming handler is still writing.
type streamRecorder struct {
	header http.Header

	mu   sync.Mutex
	body bytes.Buffer
	code int
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (r *streamRecorder) Header() http.Header { return r.header }

func (r *streamRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func (b *SSEBroker) clientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func TestSSEBroker_ReplaysLatestSnapshotOnConnect(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := NewSSEBroker(logger, testMetrics)

	snap := domain.DashboardSnapshot{
		QuarterStart: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		QuarterEnd:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Status:       domain.DashboardLive,
		Rows: []domain.AggregateRow{
			{RepID: uuid.New(), RepName: "Ana", TotalValue: 500},
		},
		GeneratedAt: time.Now().UTC(),
	}
	broker.Publish(snap)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stream", nil).WithContext(ctx)
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		broker.ServeHTTP(rec, req)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for !strings.Contains(rec.String(), `"rep_name":"Ana"`) {
		select {
		case <-deadline:
			t.Fatalf("snapshot was not replayed to a late subscriber, body: %q", rec.String())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	body := rec.String()
	if !strings.HasPrefix(body, "data: ") {
		t.Errorf("expected an SSE data frame, got %q", body)
	}
	if !strings.Contains(body, `"status":"live"`) {
		t.Errorf("expected the live snapshot in the frame, got %q", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type: got %q want text/event-stream", got)
	}
}

func TestSSEBroker_FansOutToConnectedClients(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := NewSSEBroker(logger, testMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stream", nil).WithContext(ctx)
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		broker.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the subscription to register before publishing.
	deadline := time.After(2 * time.Second)
	for broker.clientCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("client never registered with the broker")
		case <-time.After(10 * time.Millisecond):
		}
	}

	broker.Publish(domain.DashboardSnapshot{
		QuarterStart: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		QuarterEnd:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Status:       domain.DashboardStale,
		GeneratedAt:  time.Now().UTC(),
	})

	deadline = time.After(2 * time.Second)
	for !strings.Contains(rec.String(), `"status":"stale"`) {
		select {
		case <-deadline:
			t.Fatalf("published snapshot never reached the client, body: %q", rec.String())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	if got := broker.clientCount(); got != 0 {
		t.Errorf("expected the client to unregister on disconnect, %d still registered", got)
	}
}
