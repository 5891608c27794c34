package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/quarter"
)

type dealService struct {
	dealRepo  domain.DealRepository
	publisher domain.DealPublisher
	metrics   *metrics.ServerMetrics
	logger    *slog.Logger
	location  *time.Location
}

// NewDealService creates the deal submission use case. The location fixes
// which calendar quarter "current" means for listing.
func NewDealService(
	dealRepo domain.DealRepository,
	publisher domain.DealPublisher,
	m *metrics.ServerMetrics,
	logger *slog.Logger,
	location *time.Location,
) DealUseCase {
	return &dealService{
		dealRepo:  dealRepo,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With("component", "deal_service"),
		location:  location,
	}
}

// Submit validates a deal against the caller's session before touching the
// store. The session role check here is a fast precheck; the store repeats
// it against the live profile row inside the insert transaction, so a stale
// token cannot slip a deal past a role change.
func (s *dealService) Submit(ctx context.Context, session *domain.Session, req SubmitDealRequest) (*domain.Deal, error) {
	ctx, span := otel.Tracer("deal-service").Start(ctx, "SubmitDeal")
	defer span.End()

	if req.Value <= 0 {
		s.metrics.DealsTotal.WithLabelValues("error_validation").Inc()
		return nil, fmt.Errorf("%w: deal value must be positive", domain.ErrValidation)
	}
	if req.RepID == uuid.Nil {
		s.metrics.DealsTotal.WithLabelValues("error_validation").Inc()
		return nil, fmt.Errorf("%w: rep id is required", domain.ErrValidation)
	}
	if session.AccountType != domain.AccountAdmin && session.UserID != req.RepID {
		s.metrics.DealsTotal.WithLabelValues("error_validation").Inc()
		return nil, fmt.Errorf("%w: reps may only record their own deals", domain.ErrValidation)
	}

	deal := &domain.Deal{RepID: req.RepID, Value: req.Value}
	if err := s.dealRepo.Insert(ctx, session.UserID, deal); err != nil {
		switch {
		case errors.Is(err, domain.ErrInsertRejected):
			s.metrics.DealsTotal.WithLabelValues("error_rejected").Inc()
		case errors.Is(err, domain.ErrValidation):
			s.metrics.DealsTotal.WithLabelValues("error_validation").Inc()
		default:
			s.metrics.DealsTotal.WithLabelValues("error_internal").Inc()
		}
		return nil, err
	}
	s.metrics.DealsTotal.WithLabelValues("accepted").Inc()

	// The deal is committed at this point. Publishing is best-effort; a
	// missed event is healed by the next dashboard resync and by the rollup
	// worker recomputing from the store.
	if err := s.publisher.Publish(ctx, *deal); err != nil {
		s.logger.Error("publish deal event", "error", err, "deal_id", deal.ID)
	}

	return deal, nil
}

func (s *dealService) CurrentQuarterDeals(ctx context.Context) ([]domain.Deal, error) {
	start, end := quarter.Bounds(time.Now().In(s.location))
	return s.dealRepo.ListBetween(ctx, start, end)
}
