package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
	"github.com/docsched/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/docsched/backend/pkg/errors"
)

var providerColumns = []interface{}{
	"id", "name", "email", "specialization", "location", "experience_years",
	"rating", "rating_count", "created_at", "updated_at",
}

// ProviderAdapter implements the ProviderRepository interface
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) repositories.ProviderRepository {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new provider
func (a *ProviderAdapter) Create(ctx context.Context, provider *entities.Provider) error {
	record := goqu.Record{
		"id":               provider.ID,
		"name":             provider.Name,
		"email":            provider.Email,
		"specialization":   provider.Specialization,
		"location":         sql.NullString{String: provider.Location, Valid: provider.Location != ""},
		"experience_years": provider.ExperienceYrs,
		"rating":           provider.Rating,
		"rating_count":     provider.RatingCount,
		"created_at":       provider.CreatedAt,
		"updated_at":       provider.UpdatedAt,
	}

	query, args, err := a.db.Insert("providers").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create provider", err)
	}
	return nil
}

// GetByID retrieves a provider by ID
func (a *ProviderAdapter) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	query, args, err := a.db.Select(providerColumns...).
		From("providers").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	provider := &entities.Provider{}
	var location sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&provider.ID,
		&provider.Name,
		&provider.Email,
		&provider.Specialization,
		&location,
		&provider.ExperienceYrs,
		&provider.Rating,
		&provider.RatingCount,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get provider", err)
	}
	provider.Location = location.String

	return provider, nil
}

// Update updates a provider's profile fields. The rating aggregate is owned
// by the rating adapter and never written here.
func (a *ProviderAdapter) Update(ctx context.Context, provider *entities.Provider) error {
	provider.UpdatedAt = time.Now().UTC()

	record := goqu.Record{
		"name":             provider.Name,
		"email":            provider.Email,
		"specialization":   provider.Specialization,
		"location":         sql.NullString{String: provider.Location, Valid: provider.Location != ""},
		"experience_years": provider.ExperienceYrs,
		"updated_at":       provider.UpdatedAt,
	}

	query, args, err := a.db.Update("providers").
		Set(record).
		Where(goqu.Ex{"id": provider.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update provider", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", provider.ID))
	}
	return nil
}

// List retrieves providers matching the filter, ordered by rating
func (a *ProviderAdapter) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	ds := a.db.Select(providerColumns...).From("providers")

	if filter.Specialization != "" {
		ds = ds.Where(goqu.Ex{"specialization": filter.Specialization})
	}
	if filter.MinRating > 0 {
		ds = ds.Where(goqu.C("rating").Gte(filter.MinRating))
	}

	ds = ds.Order(goqu.I("rating").Desc(), goqu.I("rating_count").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list providers", err)
	}
	defer rows.Close()

	var providers []*entities.Provider
	for rows.Next() {
		provider := &entities.Provider{}
		var location sql.NullString
		if err := rows.Scan(
			&provider.ID,
			&provider.Name,
			&provider.Email,
			&provider.Specialization,
			&location,
			&provider.ExperienceYrs,
			&provider.Rating,
			&provider.RatingCount,
			&provider.CreatedAt,
			&provider.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		provider.Location = location.String
		providers = append(providers, provider)
	}
	return providers, nil
}
