package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/domain"
)

const (
	dealStreamKey = "deal_events"

	subscribeBuffer     = 256
	subscribeBatch      = 128
	subscribeMaxRetries = 5
	subscribeRetryDelay = 500 * time.Millisecond
)

// FeedRepository implements the deal change feed on Redis Streams. It
// covers all feed roles: publisher (XADD with outbox failover), fan-out
// subscriber for dashboards (cursor-tracked XREAD), consumer-group batch
// reader for the rollup worker (XREADGROUP/XACK) and dead-letter writer.
type FeedRepository struct {
	client       *redis.Client
	logger       *slog.Logger
	outbox       domain.DealOutbox
	metrics      *metrics.ServerMetrics
	dlqStreamKey string
	isAvailable  atomic.Bool
}

// NewFeedRepository creates a new Redis-backed feed repository. The outbox
// is optional; pass nil if not needed (e.g., for the rollup worker).
func NewFeedRepository(client *redis.Client, logger *slog.Logger, dlqStreamKey string, outbox domain.DealOutbox, m *metrics.ServerMetrics) *FeedRepository {
	repo := &FeedRepository{
		client:       client,
		logger:       logger.With("component", "redis_repository"),
		outbox:       outbox,
		metrics:      m,
		dlqStreamKey: dlqStreamKey,
	}
	repo.isAvailable.Store(true) // Assume available initially

	return repo
}

// EnsureGroup creates the consumer group if it does not exist yet,
// starting it at the beginning of the stream.
func (r *FeedRepository) EnsureGroup(ctx context.Context, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, dealStreamKey, group, "0").Err()
	if err != nil && !isRedisBusyGroupError(err) {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// StartHealthCheck starts a background goroutine to monitor Redis
// connectivity and trigger outbox replay after a recovery.
func (r *FeedRepository) StartHealthCheck(ctx context.Context, interval time.Duration) {
	if r.outbox == nil {
		r.logger.Info("Outbox is not configured, skipping health check/replayer")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Starting Redis health check and outbox replayer")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping Redis health check")
			return
		case <-ticker.C:
			err := r.client.Ping(ctx).Err()
			if err != nil {
				if r.isAvailable.CompareAndSwap(true, false) {
					r.metrics.OutboxActive.Set(1)
					r.logger.Error("Redis connection lost", "error", err)
				}
			} else {
				if r.isAvailable.CompareAndSwap(false, true) {
					r.logger.Info("Redis connection recovered")
					if err := r.ReplayOutbox(ctx); err != nil {
						r.logger.Error("Failed to replay outbox after Redis recovery", "error", err)
						r.isAvailable.Store(false)
					} else {
						r.metrics.OutboxActive.Set(0)
					}
				}
			}
		}
	}
}

// ReplayOutbox republishes buffered deal events to Redis and truncates the
// outbox on success.
func (r *FeedRepository) ReplayOutbox(ctx context.Context) error {
	r.logger.Info("Attempting to replay outbox to Redis")
	replayHandler := func(deal domain.Deal) error {
		return r.publishToRedis(ctx, deal)
	}

	if err := r.outbox.Replay(ctx, replayHandler); err != nil {
		return fmt.Errorf("outbox replay failed: %w", err)
	}

	if err := r.outbox.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to truncate outbox after successful replay: %w", err)
	}

	r.logger.Info("Outbox replay to Redis completed successfully")
	return nil
}

// Publish adds a committed deal to the Redis Stream, falling back to the
// outbox if Redis is unavailable.
func (r *FeedRepository) Publish(ctx context.Context, deal domain.Deal) error {
	if !r.isAvailable.Load() {
		if r.outbox == nil {
			return errors.New("redis is unavailable and outbox is not configured")
		}
		r.metrics.FeedEventsTotal.WithLabelValues("publish_failed").Inc()
		r.logger.Warn("Redis is unavailable, writing to outbox", "deal_id", deal.ID)
		return r.outbox.Write(ctx, deal)
	}

	err := r.publishToRedis(ctx, deal)
	if err != nil {
		if isNetworkError(err) {
			if r.isAvailable.CompareAndSwap(true, false) {
				r.metrics.OutboxActive.Set(1)
				r.logger.Error("Redis connection lost during publish", "error", err)
			}
			if r.outbox == nil {
				return fmt.Errorf("redis became unavailable and outbox is not configured: %w", err)
			}
			r.metrics.FeedEventsTotal.WithLabelValues("publish_failed").Inc()
			r.logger.Warn("Redis became unavailable, writing to outbox", "deal_id", deal.ID)
			return r.outbox.Write(ctx, deal)
		}
		return err
	}

	r.metrics.FeedEventsTotal.WithLabelValues("published").Inc()
	return nil
}

func (r *FeedRepository) publishToRedis(ctx context.Context, deal domain.Deal) error {
	payload, err := json.Marshal(deal)
	if err != nil {
		return fmt.Errorf("failed to marshal deal: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: dealStreamKey,
		Values: map[string]interface{}{"payload": payload},
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD to redis stream: %w", err)
	}
	return nil
}

// Subscribe returns a channel delivering deals committed after the
// subscription is established, in stream order. Transient read failures
// are retried with the cursor preserved so no event is skipped; after
// repeated failures the channel is closed, signalling the consumer to
// resync from the store.
func (r *FeedRepository) Subscribe(ctx context.Context) (<-chan domain.Deal, error) {
	cursor, err := r.streamHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve stream head: %w", err)
	}

	ch := make(chan domain.Deal, subscribeBuffer)
	go r.tailStream(ctx, cursor, ch)
	return ch, nil
}

// streamHead returns the id of the newest entry, or the zero id when the
// stream does not exist yet.
func (r *FeedRepository) streamHead(ctx context.Context) (string, error) {
	info, err := r.client.XInfoStream(ctx, dealStreamKey).Result()
	if err != nil {
		if isMissingStreamError(err) {
			return "0-0", nil
		}
		return "", err
	}
	return info.LastGeneratedID, nil
}

func (r *FeedRepository) tailStream(ctx context.Context, cursor string, ch chan<- domain.Deal) {
	defer close(ch)

	failures := 0
	for {
		if ctx.Err() != nil {
			return
		}

		args := &redis.XReadArgs{
			Streams: []string{dealStreamKey, cursor},
			Count:   subscribeBatch,
			Block:   2 * time.Second,
		}

		streams, err := r.client.XRead(ctx, args).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				failures = 0
				continue
			}
			if ctx.Err() != nil {
				return
			}
			failures++
			if failures > subscribeMaxRetries {
				r.logger.Error("Dropping feed subscription after repeated read failures", "error", err)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(subscribeRetryDelay):
			}
			continue
		}
		failures = 0

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				cursor = msg.ID

				payload, ok := msg.Values["payload"].(string)
				if !ok {
					r.logger.Warn("Invalid message format in stream, skipping", "message_id", msg.ID)
					continue
				}

				var deal domain.Deal
				if err := json.Unmarshal([]byte(payload), &deal); err != nil {
					r.logger.Warn("Failed to unmarshal deal from stream, skipping", "message_id", msg.ID, "error", err)
					continue
				}
				deal.StreamID = msg.ID

				select {
				case ch <- deal:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// ReadBatch reads a batch of deal events from the Redis Stream for a
// consumer group.
func (r *FeedRepository) ReadBatch(ctx context.Context, group, consumer string, count int) ([]domain.Deal, error) {
	args := &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{dealStreamKey, ">"},
		Count:    int64(count),
		Block:    2 * time.Second,
	}

	streams, err := r.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XREADGROUP from redis: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	messages := streams[0].Messages
	deals := make([]domain.Deal, 0, len(messages))
	for _, msg := range messages {
		payload, ok := msg.Values["payload"].(string)
		if !ok {
			r.logger.Warn("Invalid message format in stream, skipping", "message_id", msg.ID)
			continue
		}

		var deal domain.Deal
		if err := json.Unmarshal([]byte(payload), &deal); err != nil {
			r.logger.Warn("Failed to unmarshal deal from stream, skipping", "message_id", msg.ID, "error", err)
			continue
		}
		deal.StreamID = msg.ID
		deals = append(deals, deal)
	}

	return deals, nil
}

// Acknowledge acknowledges processed messages in the Redis Stream.
func (r *FeedRepository) Acknowledge(ctx context.Context, group string, streamIDs ...string) error {
	if len(streamIDs) == 0 {
		return nil
	}
	if err := r.client.XAck(ctx, dealStreamKey, group, streamIDs...).Err(); err != nil {
		return fmt.Errorf("failed to XACK messages in redis: %w", err)
	}
	return nil
}

// MoveToDeadLetter moves a batch of deal events to the dead-letter stream.
func (r *FeedRepository) MoveToDeadLetter(ctx context.Context, deals []domain.Deal) error {
	if len(deals) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, deal := range deals {
		payload, err := json.Marshal(deal)
		if err != nil {
			r.logger.Error("Failed to marshal deal for DLQ", "deal_id", deal.ID, "error", err)
			continue
		}
		args := &redis.XAddArgs{
			Stream: r.dlqStreamKey,
			Values: map[string]interface{}{
				"payload":         payload,
				"original_stream": dealStreamKey,
				"original_msg_id": deal.StreamID,
				"failed_at":       time.Now().UTC().Format(time.RFC3339),
			},
		}
		pipe.XAdd(ctx, args)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to execute DLQ pipeline: %w", err)
	}
	r.logger.Warn("Moved deal events to DLQ", "count", len(deals))
	return nil
}

func isRedisBusyGroupError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}

func isMissingStreamError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such key")
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
