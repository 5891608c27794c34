package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RollupKey identifies one materialized total: a representative within a
// calendar quarter.
type RollupKey struct {
	RepID        uuid.UUID
	QuarterStart time.Time
}

// QuarterTotal is a materialized per-rep deal total for one quarter.
type QuarterTotal struct {
	RepID        uuid.UUID `json:"rep_id"`
	RepName      string    `json:"rep_name"`
	QuarterStart time.Time `json:"quarter_start"`
	TotalValue   int64     `json:"total_value"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RollupRepository maintains the quarter_totals table.
type RollupRepository interface {
	// Recompute refreshes each key's total from the deals table. Running
	// it twice for the same key is harmless.
	Recompute(ctx context.Context, keys []RollupKey) error

	// TotalsForQuarter lists the materialized totals of one quarter,
	// largest first.
	TotalsForQuarter(ctx context.Context, quarterStart time.Time) ([]QuarterTotal, error)
}
