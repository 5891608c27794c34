package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

const confirmationKeyPrefix = "confirm_token:"

// ConfirmationRepository stores single-use email confirmation tokens in
// Redis. Tokens expire on their own if never consumed.
type ConfirmationRepository struct {
	client *redis.Client
}

// NewConfirmationRepository creates a new Redis confirmation repository.
func NewConfirmationRepository(client *redis.Client) *ConfirmationRepository {
	return &ConfirmationRepository{client: client}
}

// Store saves a confirmation token for a user with the given TTL.
func (r *ConfirmationRepository) Store(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := r.client.Set(ctx, confirmationKeyPrefix+token, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("store confirmation token: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes a confirmation token, returning the
// user it belongs to. Unknown or expired tokens come back as ErrNotFound.
func (r *ConfirmationRepository) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := r.client.GetDel(ctx, confirmationKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, fmt.Errorf("%w: unknown confirmation token", domain.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("consume confirmation token: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse confirmation token payload: %w", err)
	}
	return userID, nil
}
