package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

// AuthUseCase defines the contract for authentication services.
type AuthUseCase interface {
	SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error)
	ConfirmEmail(ctx context.Context, token string) error
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	SignOut(ctx context.Context, session *domain.Session) error
	CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)
}

// DealUseCase defines the contract for deal submission and listing.
type DealUseCase interface {
	Submit(ctx context.Context, session *domain.Session, req SubmitDealRequest) (*domain.Deal, error)
	CurrentQuarterDeals(ctx context.Context) ([]domain.Deal, error)
}

// ProfileUseCase defines the contract for reading rep profiles.
type ProfileUseCase interface {
	List(ctx context.Context) ([]domain.UserProfile, error)
}

// HistoryUseCase defines the contract for reading materialized quarter totals.
type HistoryUseCase interface {
	TotalsForQuarter(ctx context.Context, quarterLabel string) ([]domain.QuarterTotal, error)
}

// SignUpRequest carries the account creation form.
type SignUpRequest struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	AccountType domain.AccountType `json:"account_type"`
}

// SignUpResult is returned on successful account creation. The confirmation
// token stands in for mail delivery; callers hand it to ConfirmEmail.
type SignUpResult struct {
	UserID            uuid.UUID `json:"user_id"`
	ConfirmationToken string    `json:"confirmation_token"`
}

// SignInResult carries the session token and the signed-in profile.
type SignInResult struct {
	Token string              `json:"token"`
	User  *domain.UserProfile `json:"user"`
}

// SubmitDealRequest carries one deal submission.
type SubmitDealRequest struct {
	RepID uuid.UUID `json:"rep_id"`
	Value int64     `json:"value"`
}
