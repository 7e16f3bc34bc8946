package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
	apperrors "github.com/docsched/backend/pkg/errors"
)

// ProviderService handles provider profile operations
type ProviderService struct {
	repo repositories.ProviderRepository
}

// NewProviderService creates a new provider service
func NewProviderService(repo repositories.ProviderRepository) *ProviderService {
	return &ProviderService{repo: repo}
}

// Register creates a provider profile with a zeroed rating aggregate
func (s *ProviderService) Register(ctx context.Context, provider *entities.Provider) error {
	provider.Name = strings.TrimSpace(provider.Name)
	provider.Email = strings.TrimSpace(provider.Email)
	provider.Specialization = strings.TrimSpace(provider.Specialization)

	if provider.Name == "" || provider.Email == "" || provider.Specialization == "" {
		return apperrors.NewValidationError("", "name, email, and specialization are required")
	}

	if provider.ID == "" {
		provider.ID = uuid.New().String()
	}
	provider.Rating = 0
	provider.RatingCount = 0
	now := time.Now().UTC()
	provider.CreatedAt = now
	provider.UpdatedAt = now

	return s.repo.Create(ctx, provider)
}

// Get retrieves a provider by ID
func (s *ProviderService) Get(ctx context.Context, id string) (*entities.Provider, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateDetails updates a provider's profile fields, preserving the rating
// aggregate
func (s *ProviderService) UpdateDetails(ctx context.Context, provider *entities.Provider) error {
	if strings.TrimSpace(provider.Name) == "" || strings.TrimSpace(provider.Email) == "" {
		return apperrors.NewValidationError("", "name and email are required")
	}
	return s.repo.Update(ctx, provider)
}

// Search lists providers by specialization and minimum rating, best rated
// first
func (s *ProviderService) Search(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 30
	}
	return s.repo.List(ctx, filter)
}
