package usecase

import (
	"context"
	"time"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

// FeedAdminUseCase provides use cases for change feed administration.
type FeedAdminUseCase struct {
	repo domain.FeedAdminRepository
}

// NewFeedAdminUseCase creates a new FeedAdminUseCase.
func NewFeedAdminUseCase(repo domain.FeedAdminRepository) *FeedAdminUseCase {
	return &FeedAdminUseCase{repo: repo}
}

func (uc *FeedAdminUseCase) GroupInfo(ctx context.Context) ([]domain.ConsumerGroupInfo, error) {
	return uc.repo.GroupInfo(ctx)
}

func (uc *FeedAdminUseCase) ConsumerInfo(ctx context.Context, group string) ([]domain.ConsumerInfo, error) {
	return uc.repo.ConsumerInfo(ctx, group)
}

func (uc *FeedAdminUseCase) PendingSummary(ctx context.Context, group string) (*domain.PendingSummary, error) {
	return uc.repo.PendingSummary(ctx, group)
}

func (uc *FeedAdminUseCase) PendingDetails(ctx context.Context, group, consumer, startID string, count int64) ([]domain.PendingDetail, error) {
	if startID == "" {
		startID = "-"
	}
	if count <= 0 {
		count = 100 // Default count
	}
	return uc.repo.PendingDetails(ctx, group, consumer, startID, count)
}

func (uc *FeedAdminUseCase) ClaimStale(ctx context.Context, group, consumer string, minIdle time.Duration, entryIDs []string) ([]domain.Deal, error) {
	return uc.repo.ClaimStale(ctx, group, consumer, minIdle, entryIDs)
}

func (uc *FeedAdminUseCase) TrimFeed(ctx context.Context, maxLen int64) (int64, error) {
	return uc.repo.TrimFeed(ctx, maxLen)
}
