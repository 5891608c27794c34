package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/domain"
)

const (
	clientBuffer      = 8
	heartbeatInterval = 15 * time.Second
)

// SSEBroker fans dashboard snapshots out to connected event stream clients.
// Snapshots are self-contained, so a slow client that misses one is made
// whole by the next; nothing queues beyond the small per-client buffer.
type SSEBroker struct {
	logger  *slog.Logger
	metrics *metrics.ServerMetrics

	mu      sync.Mutex
	clients map[chan []byte]struct{}
	latest  []byte
}

// NewSSEBroker creates a new SSEBroker.
func NewSSEBroker(logger *slog.Logger, m *metrics.ServerMetrics) *SSEBroker {
	return &SSEBroker{
		logger:  logger,
		metrics: m,
		clients: make(map[chan []byte]struct{}),
	}
}

// Publish broadcasts a snapshot to every connected client and retains it
// for clients that connect later. Called synchronously from the dashboard
// view's event loop, so it must not block.
func (b *SSEBroker) Publish(snap domain.DashboardSnapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		b.logger.Error("failed to marshal dashboard snapshot", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest = payload
	for client := range b.clients {
		select {
		case client <- payload:
		default:
			// Slow client; it catches up on the next snapshot.
		}
	}
}

// ServeHTTP handles new client connections for the dashboard stream.
// GET /api/dashboard/stream
func (b *SSEBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorKind(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	messageChan := make(chan []byte, clientBuffer)
	current := b.addClient(messageChan)
	defer b.removeClient(messageChan)

	// New clients see the current state immediately instead of waiting for
	// the next deal.
	if current != nil {
		fmt.Fprintf(w, "data: %s\n\n", current)
		flusher.Flush()
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case msg, ok := <-messageChan:
			if !ok {
				return // Channel was closed
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (b *SSEBroker) addClient(client chan []byte) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = struct{}{}
	b.metrics.StreamClients.Inc()
	b.logger.Info("dashboard stream client connected", "clients", len(b.clients))
	return b.latest
}

func (b *SSEBroker) removeClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client)
		b.metrics.StreamClients.Dec()
		b.logger.Info("dashboard stream client disconnected", "clients", len(b.clients))
	}
}
