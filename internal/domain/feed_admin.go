package domain

import (
	"context"
	"time"
)

// ConsumerGroupInfo represents information about a change feed consumer group.
type ConsumerGroupInfo struct {
	Name            string `json:"name"`
	Consumers       int64  `json:"consumers"`
	Pending         int64  `json:"pending"`
	LastDeliveredID string `json:"last_delivered_id"`
}

// ConsumerInfo represents information about a specific consumer in a group.
type ConsumerInfo struct {
	Name    string        `json:"name"`
	Pending int64         `json:"pending"`
	Idle    time.Duration `json:"idle_ms"`
}

// PendingSummary provides a summary of unacknowledged feed events for a
// consumer group.
type PendingSummary struct {
	Total          int64            `json:"total"`
	FirstEntryID   string           `json:"first_entry_id,omitempty"`
	LastEntryID    string           `json:"last_entry_id,omitempty"`
	ConsumerTotals map[string]int64 `json:"consumer_totals,omitempty"`
}

// PendingDetail represents a detailed view of a single unacknowledged event.
type PendingDetail struct {
	ID         string        `json:"id"`
	Consumer   string        `json:"consumer"`
	IdleTime   time.Duration `json:"idle_time_ms"`
	RetryCount int64         `json:"retry_count"`
}

// FeedAdminRepository exposes operational introspection of the change feed.
type FeedAdminRepository interface {
	GroupInfo(ctx context.Context) ([]ConsumerGroupInfo, error)
	ConsumerInfo(ctx context.Context, group string) ([]ConsumerInfo, error)
	PendingSummary(ctx context.Context, group string) (*PendingSummary, error)
	PendingDetails(ctx context.Context, group, consumer, startID string, count int64) ([]PendingDetail, error)
	ClaimStale(ctx context.Context, group, consumer string, minIdle time.Duration, entryIDs []string) ([]Deal, error)
	TrimFeed(ctx context.Context, maxLen int64) (int64, error)
}
