package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/pkg/util"
)

const minPasswordLength = 8

type authService struct {
	profileRepo domain.ProfileRepository
	sessionRepo domain.SessionRepository
	confirmRepo domain.ConfirmationRepository
	metrics     *metrics.ServerMetrics
	logger      *slog.Logger
	jwtSecret   string
	sessionTTL  time.Duration
	confirmTTL  time.Duration
}

// NewAuthService creates the authentication use case. Confirmation tokens
// are returned to the caller instead of being mailed out; delivery is a
// concern of the surrounding deployment.
func NewAuthService(
	profileRepo domain.ProfileRepository,
	sessionRepo domain.SessionRepository,
	confirmRepo domain.ConfirmationRepository,
	m *metrics.ServerMetrics,
	logger *slog.Logger,
	jwtSecret string,
	sessionTTL, confirmTTL time.Duration,
) AuthUseCase {
	return &authService{
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		confirmRepo: confirmRepo,
		metrics:     m,
		logger:      logger.With("component", "auth_service"),
		jwtSecret:   jwtSecret,
		sessionTTL:  sessionTTL,
		confirmTTL:  confirmTTL,
	}
}

func (s *authService) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	if !req.AccountType.Valid() {
		return nil, fmt.Errorf("%w: account type must be admin or rep", domain.ErrValidation)
	}

	hash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profile := &domain.UserProfile{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		AccountType:  req.AccountType,
		PasswordHash: hash,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	token := uuid.NewString()
	if err := s.confirmRepo.Store(ctx, token, profile.ID, s.confirmTTL); err != nil {
		return nil, fmt.Errorf("store confirmation token: %w", err)
	}

	s.logger.Info("account created", "user_id", profile.ID, "account_type", profile.AccountType)

	return &SignUpResult{UserID: profile.ID, ConfirmationToken: token}, nil
}

func (s *authService) ConfirmEmail(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: confirmation token is required", domain.ErrValidation)
	}

	userID, err := s.confirmRepo.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown or expired confirmation token", domain.ErrValidation)
		}
		return err
	}

	if err := s.profileRepo.MarkEmailConfirmed(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("email confirmed", "user_id", userID)
	return nil
}

// SignIn returns the same error for unknown accounts, wrong passwords and
// unconfirmed addresses so the response does not reveal which one failed.
func (s *authService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.profileRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.AuthFailures.WithLabelValues("credentials").Inc()
			return nil, domain.ErrAuth
		}
		return nil, err
	}

	if !util.CheckPasswordHash(password, user.PasswordHash) {
		s.metrics.AuthFailures.WithLabelValues("credentials").Inc()
		return nil, domain.ErrAuth
	}

	if !user.EmailConfirmed {
		s.metrics.AuthFailures.WithLabelValues("unconfirmed").Inc()
		return nil, domain.ErrAuth
	}

	token, err := util.GenerateToken(user, s.jwtSecret, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	s.logger.Info("sign-in", "user_id", user.ID, "account_type", user.AccountType)

	return &SignInResult{Token: token, User: user}, nil
}

func (s *authService) SignOut(ctx context.Context, session *domain.Session) error {
	if err := s.sessionRepo.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	s.logger.Info("sign-out", "user_id", session.UserID)
	return nil
}

func (s *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	return s.profileRepo.FindByID(ctx, userID)
}
