package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository for PostgreSQL.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new PostgreSQL profile repository.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create stores a new profile. A duplicate email surfaces as ErrValidation
// so the caller can report it without leaking constraint names.
func (r *ProfileRepository) Create(ctx context.Context, p *domain.UserProfile) error {
	query := `
		INSERT INTO profiles (id, name, email, account_type, email_confirmed, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Email,
		p.AccountType,
		p.EmailConfirmed,
		p.PasswordHash,
		p.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: email already registered", domain.ErrValidation)
		}
		return fmt.Errorf("create profile: %w", err)
	}

	return nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UserProfile, error) {
	query := `
		SELECT id, name, email, account_type, email_confirmed, password_hash, created_at
		FROM profiles
		WHERE id = $1
	`

	var p domain.UserProfile
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.AccountType,
		&p.EmailConfirmed,
		&p.PasswordHash,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: profile %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	query := `
		SELECT id, name, email, account_type, email_confirmed, password_hash, created_at
		FROM profiles
		WHERE email = $1
	`

	var p domain.UserProfile
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.AccountType,
		&p.EmailConfirmed,
		&p.PasswordHash,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no profile for email", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find profile by email: %w", err)
	}
	return &p, nil
}

// List returns all profiles ordered by name. The dashboard uses this to
// resolve rep names, so ordering is stable across calls.
func (r *ProfileRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	query := `
		SELECT id, name, email, account_type, email_confirmed, password_hash, created_at
		FROM profiles
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.UserProfile
	for rows.Next() {
		var p domain.UserProfile
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Email,
			&p.AccountType,
			&p.EmailConfirmed,
			&p.PasswordHash,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	return profiles, nil
}

func (r *ProfileRepository) MarkEmailConfirmed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE profiles SET email_confirmed = TRUE WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark email confirmed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark email confirmed: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: profile %s", domain.ErrNotFound, id)
	}

	return nil
}
