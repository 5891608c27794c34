package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Deal represents one recorded sale. Deals are insert-only: never updated
// or deleted. Quarter membership is derived from CreatedAt at read time,
// not stored.
type Deal struct {
	ID        uuid.UUID `json:"id"`
	RepID     uuid.UUID `json:"rep_id"`
	Value     int64     `json:"value"` // currency minor units
	CreatedAt time.Time `json:"created_at"`

	StreamID string `json:"-"` // feed entry id, set when read from the stream
}

// DealRepository defines the interface for deal persistence. Insert is the
// authoritative policy check: a rep may only record their own deals, an
// admin anyone's, verified against the live profiles table regardless of
// what the caller's token claims.
type DealRepository interface {
	// Insert stores a new deal on behalf of actorID, assigning its ID and
	// CreatedAt. Policy violations return ErrInsertRejected.
	Insert(ctx context.Context, actorID uuid.UUID, deal *Deal) error

	// ListBetween returns deals with start <= CreatedAt < end, oldest
	// first.
	ListBetween(ctx context.Context, start, end time.Time) ([]Deal, error)
}

// DealPublisher publishes committed deals to the live change feed.
type DealPublisher interface {
	Publish(ctx context.Context, deal Deal) error
}

// DealSubscriber delivers committed deals to a dashboard view model.
type DealSubscriber interface {
	// Subscribe returns a channel of deals committed after the
	// subscription is established, in feed order. The channel is closed
	// only when delivery cannot continue without a gap; the consumer must
	// then resync from the store rather than resubscribe blindly.
	Subscribe(ctx context.Context) (<-chan Deal, error)
}

// DealBatchReader reads the change feed through a consumer group for
// batch processing.
type DealBatchReader interface {
	ReadBatch(ctx context.Context, group, consumer string, count int) ([]Deal, error)
	Acknowledge(ctx context.Context, group string, streamIDs ...string) error
	MoveToDeadLetter(ctx context.Context, deals []Deal) error
}

// DealOutbox buffers deal events locally while the feed is unreachable.
type DealOutbox interface {
	// Write appends a deal event to the outbox.
	Write(ctx context.Context, deal Deal) error

	// Replay reads buffered events oldest-first and hands each to the
	// handler, which is responsible for re-publishing it.
	Replay(ctx context.Context, handler func(deal Deal) error) error

	// Truncate discards events that have been successfully replayed.
	Truncate(ctx context.Context) error
}
