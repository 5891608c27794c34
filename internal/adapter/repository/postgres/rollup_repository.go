package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

// RollupRepository maintains the quarter_totals table in PostgreSQL.
type RollupRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRollupRepository creates a new PostgreSQL rollup repository.
func NewRollupRepository(db *sql.DB, logger *slog.Logger) *RollupRepository {
	return &RollupRepository{db: db, logger: logger}
}

// Recompute refreshes each key's total from the deals table rather than
// incrementing, so redelivered feed events cannot double-count.
func (r *RollupRepository) Recompute(ctx context.Context, keys []domain.RollupKey) error {
	if len(keys) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rollup recompute: %w", err)
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	query := `
		INSERT INTO quarter_totals (rep_id, rep_name, quarter_start, total_value, updated_at)
		SELECT p.id, p.name, $2, COALESCE(SUM(d.value), 0), now()
		FROM profiles p
		LEFT JOIN deals d
			ON d.rep_id = p.id AND d.created_at >= $2 AND d.created_at < $3
		WHERE p.id = $1
		GROUP BY p.id, p.name
		ON CONFLICT (rep_id, quarter_start) DO UPDATE SET
			rep_name = EXCLUDED.rep_name,
			total_value = EXCLUDED.total_value,
			updated_at = EXCLUDED.updated_at
	`

	stmt, err := txn.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare rollup recompute: %w", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		quarterEnd := key.QuarterStart.AddDate(0, 3, 0)
		if _, err := stmt.ExecContext(ctx, key.RepID, key.QuarterStart, quarterEnd); err != nil {
			return fmt.Errorf("recompute total for rep %s: %w", key.RepID, err)
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit rollup recompute: %w", err)
	}

	r.logger.Debug("quarter totals recomputed", "keys", len(keys))
	return nil
}

// TotalsForQuarter lists the materialized totals of one quarter, largest
// first with name as the tie-break.
func (r *RollupRepository) TotalsForQuarter(ctx context.Context, quarterStart time.Time) ([]domain.QuarterTotal, error) {
	query := `
		SELECT rep_id, rep_name, quarter_start, total_value, updated_at
		FROM quarter_totals
		WHERE quarter_start = $1
		ORDER BY total_value DESC, rep_name, rep_id
	`

	rows, err := r.db.QueryContext(ctx, query, quarterStart)
	if err != nil {
		return nil, fmt.Errorf("list quarter totals: %w", err)
	}
	defer rows.Close()

	var totals []domain.QuarterTotal
	for rows.Next() {
		var t domain.QuarterTotal
		if err := rows.Scan(&t.RepID, &t.RepName, &t.QuarterStart, &t.TotalValue, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan quarter total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quarter totals: %w", err)
	}

	return totals, nil
}
