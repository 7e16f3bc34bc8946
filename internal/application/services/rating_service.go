package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
	apperrors "github.com/docsched/backend/pkg/errors"
)

// ProviderCacheInvalidator drops cached provider state after an aggregate
// change; wired when the provider repository is cache-backed
type ProviderCacheInvalidator interface {
	InvalidateProvider(ctx context.Context, id string)
}

// RatingService maintains each provider's running mean rating
type RatingService struct {
	ratingRepo    repositories.RatingRepository
	requesterRepo repositories.RequesterRepository
	invalidator   ProviderCacheInvalidator
}

// NewRatingService creates a new rating service
func NewRatingService(
	ratingRepo repositories.RatingRepository,
	requesterRepo repositories.RequesterRepository,
	invalidator ProviderCacheInvalidator,
) *RatingService {
	return &RatingService{
		ratingRepo:    ratingRepo,
		requesterRepo: requesterRepo,
		invalidator:   invalidator,
	}
}

// Rate folds a score into the provider's running mean. The repository
// applies the read-modify-write atomically per provider, so concurrent
// ratings both land and the mean after N scores equals their sum over N
// regardless of interleaving.
func (s *RatingService) Rate(ctx context.Context, requesterID, providerID string, score float64, comment string) (*entities.RatingSummary, error) {
	if score < 0 || score > 5 {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidScore,
			fmt.Sprintf("score %.2f is outside [0, 5]", score))
	}

	if _, err := s.requesterRepo.GetByID(ctx, requesterID); err != nil {
		return nil, err
	}

	entry := &entities.RatingEntry{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		ProviderID:  providerID,
		Score:       score,
		Comment:     comment,
		CreatedAt:   time.Now().UTC(),
	}

	summary, err := s.ratingRepo.Apply(ctx, entry)
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateProvider(ctx, providerID)
	}
	return summary, nil
}

// ListForProvider retrieves rating entries for a provider, newest first
func (s *RatingService) ListForProvider(ctx context.Context, providerID string, limit, offset int) ([]*entities.RatingEntry, error) {
	return s.ratingRepo.ListByProvider(ctx, providerID, limit, offset)
}
