package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

// DealRepository implements domain.DealRepository for PostgreSQL.
type DealRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDealRepository creates a new PostgreSQL deal repository.
func NewDealRepository(db *sql.DB, logger *slog.Logger) *DealRepository {
	return &DealRepository{db: db, logger: logger}
}

// Insert stores a new deal on behalf of actorID. The access check runs
// inside the insert transaction against the live profiles table: whatever
// the caller's token claims, a non-admin actor may only record deals for
// their own rep id. Violations and unknown rep ids return ErrInsertRejected.
func (r *DealRepository) Insert(ctx context.Context, actorID uuid.UUID, deal *domain.Deal) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin deal insert: %w", err)
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	var accountType domain.AccountType
	err = txn.QueryRowContext(ctx,
		`SELECT account_type FROM profiles WHERE id = $1`, actorID,
	).Scan(&accountType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: actor %s has no profile", domain.ErrInsertRejected, actorID)
		}
		return fmt.Errorf("load actor profile: %w", err)
	}

	if accountType != domain.AccountAdmin && actorID != deal.RepID {
		return fmt.Errorf("%w: rep %s may not record deals for %s", domain.ErrInsertRejected, actorID, deal.RepID)
	}

	deal.ID = uuid.New()
	deal.CreatedAt = time.Now().UTC()

	_, err = txn.ExecContext(ctx,
		`INSERT INTO deals (id, rep_id, value, created_at) VALUES ($1, $2, $3, $4)`,
		deal.ID, deal.RepID, deal.Value, deal.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: rep %s does not exist", domain.ErrInsertRejected, deal.RepID)
		}
		return fmt.Errorf("insert deal: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit deal insert: %w", err)
	}

	r.logger.Debug("deal inserted", "deal_id", deal.ID, "rep_id", deal.RepID, "value", deal.Value)
	return nil
}

// ListBetween returns deals with start <= created_at < end, oldest first.
func (r *DealRepository) ListBetween(ctx context.Context, start, end time.Time) ([]domain.Deal, error) {
	query := `
		SELECT id, rep_id, value, created_at
		FROM deals
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	var deals []domain.Deal
	for rows.Next() {
		var d domain.Deal
		if err := rows.Scan(&d.ID, &d.RepID, &d.Value, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}

	return deals, nil
}
