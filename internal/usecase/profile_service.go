package usecase

import (
	"context"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

type profileService struct {
	profileRepo domain.ProfileRepository
}

// NewProfileService creates the profile listing use case.
func NewProfileService(profileRepo domain.ProfileRepository) ProfileUseCase {
	return &profileService{profileRepo: profileRepo}
}

func (s *profileService) List(ctx context.Context) ([]domain.UserProfile, error) {
	return s.profileRepo.List(ctx)
}
