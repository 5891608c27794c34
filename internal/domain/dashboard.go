package domain

import (
	"time"

	"github.com/google/uuid"
)

// Dashboard status values carried in every snapshot.
const (
	DashboardLive  = "live"
	DashboardStale = "stale" // feed dropped; totals frozen until resync
)

// AggregateRow is one bar of the dashboard chart: a representative and
// their deal total for the displayed quarter.
type AggregateRow struct {
	RepID      uuid.UUID `json:"rep_id"`
	RepName    string    `json:"rep_name"`
	TotalValue int64     `json:"total_value"`
}

// DashboardSnapshot is the chart payload pushed to clients. Rows are
// ordered by TotalValue descending, RepName ascending on ties; only reps
// with at least one deal inside the quarter appear.
type DashboardSnapshot struct {
	QuarterStart time.Time      `json:"quarter_start"`
	QuarterEnd   time.Time      `json:"quarter_end"`
	Rows         []AggregateRow `json:"rows"`
	Status       string         `json:"status"`
	GeneratedAt  time.Time      `json:"generated_at"`
}
