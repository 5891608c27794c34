package outbox

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

const (
	segmentPrefix = "segment-"
	filePerm      = 0644
)

// OutboxRepository implements a file-based publish outbox. Deal events
// land here when the change feed is unreachable and are replayed in
// order once it recovers.
type OutboxRepository struct {
	dir            string
	maxSegmentSize int64
	maxTotalSize   int64
	logger         *slog.Logger

	mu             sync.Mutex
	currentSegment *os.File
	currentSize    int64
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(dir string, maxSegmentSize, maxTotalSize int64, logger *slog.Logger) (*OutboxRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create outbox directory %s: %w", dir, err)
	}

	o := &OutboxRepository{
		dir:            dir,
		maxSegmentSize: maxSegmentSize,
		maxTotalSize:   maxTotalSize,
		logger:         logger.With("component", "outbox_repository"),
	}

	if err := o.openLatestSegment(); err != nil {
		return nil, err
	}

	return o, nil
}

// Write appends a deal event to the current outbox segment.
func (o *OutboxRepository) Write(ctx context.Context, deal domain.Deal) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	data, err := json.Marshal(deal)
	if err != nil {
		return fmt.Errorf("failed to marshal deal for outbox: %w", err)
	}
	data = append(data, '\n')

	if o.currentSegment == nil {
		if err := o.rotate(); err != nil {
			return err
		}
	}

	// Check total size before writing
	totalSize, err := o.calculateTotalSize()
	if err != nil {
		o.logger.Error("Failed to calculate total outbox size", "error", err)
		return fmt.Errorf("could not verify outbox disk space: %w", err)
	}
	if totalSize+int64(len(data)) > o.maxTotalSize {
		return fmt.Errorf("outbox max total size exceeded (%d > %d)", totalSize, o.maxTotalSize)
	}

	n, err := o.currentSegment.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write to outbox segment: %w", err)
	}
	o.currentSize += int64(n)

	if o.currentSize >= o.maxSegmentSize {
		if err := o.rotate(); err != nil {
			o.logger.Error("Failed to rotate outbox segment", "error", err)
		}
	}

	return nil
}

// Replay reads all outbox segments oldest-first and calls the handler for
// each buffered deal event.
func (o *OutboxRepository) Replay(ctx context.Context, handler func(deal domain.Deal) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.currentSegment != nil {
		o.currentSegment.Close()
		o.currentSegment = nil
	}

	segments, err := o.getSortedSegments()
	if err != nil {
		return err
	}

	if len(segments) == 0 {
		o.logger.Info("Outbox is empty, nothing to replay")
		return nil
	}
	o.logger.Info("Starting outbox replay", "segment_count", len(segments))

	for _, segmentPath := range segments {
		file, err := os.Open(segmentPath)
		if err != nil {
			return fmt.Errorf("failed to open segment %s for replay: %w", segmentPath, err)
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			if ctx.Err() != nil {
				file.Close()
				return ctx.Err()
			}
			var deal domain.Deal
			if err := json.Unmarshal(scanner.Bytes(), &deal); err != nil {
				o.logger.Warn("Failed to unmarshal deal from outbox, skipping", "error", err, "line", scanner.Text())
				continue
			}
			if err := handler(deal); err != nil {
				file.Close()
				o.logger.Error("Outbox replay handler failed, stopping replay", "error", err)
				return fmt.Errorf("replay handler failed: %w", err)
			}
		}
		if err := scanner.Err(); err != nil {
			file.Close()
			return fmt.Errorf("error scanning segment %s: %w", segmentPath, err)
		}
		file.Close()
	}

	o.logger.Info("Outbox replay completed")
	return nil
}

// Truncate removes all outbox segment files.
func (o *OutboxRepository) Truncate(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.currentSegment != nil {
		o.currentSegment.Close()
		o.currentSegment = nil
	}

	segments, err := o.getSortedSegments()
	if err != nil {
		return err
	}

	for _, segmentPath := range segments {
		if err := os.Remove(segmentPath); err != nil {
			o.logger.Error("Failed to remove outbox segment", "path", segmentPath, "error", err)
		}
	}

	o.logger.Info("Outbox truncated")
	return o.openLatestSegment()
}

func (o *OutboxRepository) rotate() error {
	if o.currentSegment != nil {
		if err := o.currentSegment.Sync(); err != nil {
			o.logger.Error("Failed to sync outbox segment before rotating", "error", err)
		}
		if err := o.currentSegment.Close(); err != nil {
			o.logger.Error("Failed to close outbox segment before rotating", "error", err)
		}
		o.currentSegment = nil
	}

	segmentName := fmt.Sprintf("%s%d.log", segmentPrefix, time.Now().UnixNano())
	path := filepath.Join(o.dir, segmentName)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create new outbox segment %s: %w", path, err)
	}

	o.currentSegment = f
	o.currentSize = 0
	o.logger.Info("Rotated to new outbox segment", "path", path)
	return nil
}

func (o *OutboxRepository) openLatestSegment() error {
	segments, err := o.getSortedSegments()
	if err != nil {
		return err
	}

	if len(segments) == 0 {
		return o.rotate()
	}

	latestSegmentPath := segments[len(segments)-1]
	stat, err := os.Stat(latestSegmentPath)
	if err != nil {
		return fmt.Errorf("failed to stat latest segment %s: %w", latestSegmentPath, err)
	}

	f, err := os.OpenFile(latestSegmentPath, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open latest segment %s: %w", latestSegmentPath, err)
	}

	o.currentSegment = f
	o.currentSize = stat.Size()
	o.logger.Info("Opened existing outbox segment", "path", latestSegmentPath, "size", o.currentSize)

	if o.currentSize >= o.maxSegmentSize {
		return o.rotate()
	}

	return nil
}

func (o *OutboxRepository) getSortedSegments() ([]string, error) {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read outbox directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), segmentPrefix) {
			segments = append(segments, filepath.Join(o.dir, entry.Name()))
		}
	}
	sort.Strings(segments)
	return segments, nil
}

func (o *OutboxRepository) calculateTotalSize() (int64, error) {
	var totalSize int64
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), segmentPrefix) {
			info, err := entry.Info()
			if err != nil {
				return 0, err
			}
			totalSize += info.Size()
		}
	}
	return totalSize, nil
}

// Close ensures the current segment is closed gracefully.
func (o *OutboxRepository) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.currentSegment != nil {
		return o.currentSegment.Close()
	}
	return nil
}
