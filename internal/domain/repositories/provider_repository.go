package repositories

import (
	"context"

	"github.com/docsched/backend/internal/domain/entities"
)

// ProviderRepository defines the interface for provider data operations
type ProviderRepository interface {
	// Create creates a new provider
	Create(ctx context.Context, provider *entities.Provider) error

	// GetByID retrieves a provider by ID
	GetByID(ctx context.Context, id string) (*entities.Provider, error)

	// Update updates a provider's profile fields
	Update(ctx context.Context, provider *entities.Provider) error

	// List retrieves providers matching the filter, ordered by rating
	List(ctx context.Context, filter ProviderFilter) ([]*entities.Provider, error)
}

// ProviderFilter defines filters for listing providers
type ProviderFilter struct {
	Specialization string
	MinRating      float64
	Limit          int
	Offset         int
}
