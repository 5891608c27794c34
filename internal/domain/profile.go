package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountType defines the permission level of a profile.
type AccountType string

const (
	AccountAdmin AccountType = "admin" // may record deals for any rep
	AccountRep   AccountType = "rep"   // may record only their own deals
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	return t == AccountAdmin || t == AccountRep
}

// UserProfile represents a dashboard account. The profile attributes are
// set once at sign-up and immutable afterwards.
type UserProfile struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	AccountType    AccountType `json:"account_type"`
	EmailConfirmed bool        `json:"email_confirmed"`
	PasswordHash   string      `json:"-"` // Not exposed in API responses
	CreatedAt      time.Time   `json:"created_at"`
}

// ProfileRepository defines the interface for profile persistence.
type ProfileRepository interface {
	Create(ctx context.Context, p *UserProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*UserProfile, error)
	List(ctx context.Context) ([]UserProfile, error)
	MarkEmailConfirmed(ctx context.Context, id uuid.UUID) error
}
