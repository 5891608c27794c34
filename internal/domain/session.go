package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the identity handle threaded through a request after the
// route guard admits it. It mirrors the signed token, not the live profile
// row, so the role may lag a profile change until the token expires; the
// deal store re-checks policy against the live row for that reason.
type Session struct {
	UserID      uuid.UUID
	Name        string
	AccountType AccountType
	TokenID     string
	ExpiresAt   time.Time
}

// SessionRepository tracks revoked session tokens between sign-out and
// their natural expiry.
type SessionRepository interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ConfirmationRepository holds single-use email confirmation tokens. Consume
// removes the token so a second confirmation attempt fails.
type ConfirmationRepository interface {
	Store(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}
