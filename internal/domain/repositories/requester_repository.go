package repositories

import (
	"context"

	"github.com/docsched/backend/internal/domain/entities"
)

// RequesterRepository defines the interface for requester data operations
type RequesterRepository interface {
	// Create creates a new requester
	Create(ctx context.Context, requester *entities.Requester) error

	// GetByID retrieves a requester by ID
	GetByID(ctx context.Context, id string) (*entities.Requester, error)

	// Update updates a requester's profile fields
	Update(ctx context.Context, requester *entities.Requester) error
}
