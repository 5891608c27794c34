package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

// AdminRepository implements domain.FeedAdminRepository for Redis.
type AdminRepository struct {
	client *redis.Client
	logger *slog.Logger
}

// NewAdminRepository creates a new Redis admin repository.
func NewAdminRepository(client *redis.Client, logger *slog.Logger) *AdminRepository {
	return &AdminRepository{
		client: client,
		logger: logger,
	}
}

// GroupInfo retrieves information about all consumer groups on the deal feed.
func (r *AdminRepository) GroupInfo(ctx context.Context) ([]domain.ConsumerGroupInfo, error) {
	groups, err := r.client.XInfoGroups(ctx, dealStreamKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get group info for stream %s: %w", dealStreamKey, err)
	}

	result := make([]domain.ConsumerGroupInfo, len(groups))
	for i, g := range groups {
		result[i] = domain.ConsumerGroupInfo{
			Name:            g.Name,
			Consumers:       g.Consumers,
			Pending:         g.Pending,
			LastDeliveredID: g.LastDeliveredID,
		}
	}
	return result, nil
}

// ConsumerInfo retrieves information about consumers in a specific group.
func (r *AdminRepository) ConsumerInfo(ctx context.Context, group string) ([]domain.ConsumerInfo, error) {
	consumers, err := r.client.XInfoConsumers(ctx, dealStreamKey, group).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer info for group %s: %w", group, err)
	}

	result := make([]domain.ConsumerInfo, len(consumers))
	for i, c := range consumers {
		result[i] = domain.ConsumerInfo{
			Name:    c.Name,
			Pending: c.Pending,
			Idle:    time.Duration(c.Idle) * time.Millisecond,
		}
	}
	return result, nil
}

// PendingSummary retrieves a summary of unacknowledged events for a group.
func (r *AdminRepository) PendingSummary(ctx context.Context, group string) (*domain.PendingSummary, error) {
	pending, err := r.client.XPending(ctx, dealStreamKey, group).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending summary for group %s: %w", group, err)
	}

	summary := &domain.PendingSummary{
		Total:          pending.Count,
		FirstEntryID:   pending.Lower,
		LastEntryID:    pending.Higher,
		ConsumerTotals: pending.Consumers,
	}
	return summary, nil
}

// PendingDetails retrieves detailed information about unacknowledged events.
func (r *AdminRepository) PendingDetails(ctx context.Context, group, consumer, startID string, count int64) ([]domain.PendingDetail, error) {
	args := &redis.XPendingExtArgs{
		Stream:   dealStreamKey,
		Group:    group,
		Start:    startID,
		End:      "+",
		Count:    count,
		Consumer: consumer,
	}

	messages, err := r.client.XPendingExt(ctx, args).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending details: %w", err)
	}

	result := make([]domain.PendingDetail, len(messages))
	for i, m := range messages {
		result[i] = domain.PendingDetail{
			ID:         m.ID,
			Consumer:   m.Consumer,
			IdleTime:   m.Idle,
			RetryCount: m.RetryCount,
		}
	}
	return result, nil
}

// ClaimStale claims unacknowledged events for a new consumer.
func (r *AdminRepository) ClaimStale(ctx context.Context, group, consumer string, minIdle time.Duration, entryIDs []string) ([]domain.Deal, error) {
	args := &redis.XClaimArgs{
		Stream:   dealStreamKey,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: entryIDs,
	}

	claimed, err := r.client.XClaim(ctx, args).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim messages: %w", err)
	}

	deals := make([]domain.Deal, 0, len(claimed))
	for _, msg := range claimed {
		payload, ok := msg.Values["payload"].(string)
		if !ok {
			continue
		}
		var deal domain.Deal
		if err := json.Unmarshal([]byte(payload), &deal); err != nil {
			r.logger.Warn("failed to unmarshal claimed message into deal", "messageID", msg.ID, "error", err)
			continue
		}
		deal.StreamID = msg.ID
		deals = append(deals, deal)
	}
	return deals, nil
}

// TrimFeed trims the deal feed to a maximum length.
func (r *AdminRepository) TrimFeed(ctx context.Context, maxLen int64) (int64, error) {
	return r.client.XTrimMaxLen(ctx, dealStreamKey, maxLen).Result()
}
