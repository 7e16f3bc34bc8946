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

// RequesterService handles requester profile operations
type RequesterService struct {
	repo repositories.RequesterRepository
}

// NewRequesterService creates a new requester service
func NewRequesterService(repo repositories.RequesterRepository) *RequesterService {
	return &RequesterService{repo: repo}
}

// Register creates a requester profile
func (s *RequesterService) Register(ctx context.Context, requester *entities.Requester) error {
	requester.Name = strings.TrimSpace(requester.Name)
	requester.Email = strings.TrimSpace(requester.Email)

	if requester.Name == "" || requester.Email == "" {
		return apperrors.NewValidationError("", "name and email are required")
	}

	if requester.ID == "" {
		requester.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	requester.CreatedAt = now
	requester.UpdatedAt = now

	return s.repo.Create(ctx, requester)
}

// Get retrieves a requester by ID
func (s *RequesterService) Get(ctx context.Context, id string) (*entities.Requester, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateDetails updates a requester's profile fields
func (s *RequesterService) UpdateDetails(ctx context.Context, requester *entities.Requester) error {
	if strings.TrimSpace(requester.Name) == "" || strings.TrimSpace(requester.Email) == "" {
		return apperrors.NewValidationError("", "name and email are required")
	}
	return s.repo.Update(ctx, requester)
}
