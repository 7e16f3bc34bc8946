package repositories

import (
	"context"

	"github.com/docsched/backend/internal/domain/entities"
)

// RatingRepository defines the interface for rating data operations
type RatingRepository interface {
	// Apply records the rating entry and folds its score into the provider's
	// running mean as a single atomic read-modify-write; two concurrent
	// ratings for the same provider must both be reflected in the aggregate.
	// Returns the provider's aggregate after the update.
	Apply(ctx context.Context, entry *entities.RatingEntry) (*entities.RatingSummary, error)

	// ListByProvider retrieves rating entries for a provider, newest first
	ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*entities.RatingEntry, error)
}
