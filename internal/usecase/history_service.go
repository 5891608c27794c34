package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/quarter"
)

type historyService struct {
	rollupRepo domain.RollupRepository
	location   *time.Location
}

// NewHistoryService creates the use case for reading materialized quarter
// totals out of the rollup table.
func NewHistoryService(rollupRepo domain.RollupRepository, location *time.Location) HistoryUseCase {
	return &historyService{rollupRepo: rollupRepo, location: location}
}

// TotalsForQuarter returns the rolled-up totals for a quarter label such as
// "2026-Q3". An empty label means the current quarter.
func (s *historyService) TotalsForQuarter(ctx context.Context, quarterLabel string) ([]domain.QuarterTotal, error) {
	var start time.Time
	if quarterLabel == "" {
		start, _ = quarter.Bounds(time.Now().In(s.location))
	} else {
		var err error
		start, err = quarter.Parse(quarterLabel, s.location)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}

	return s.rollupRepo.TotalsForQuarter(ctx, start)
}
