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

// RequesterAdapter implements the RequesterRepository interface
type RequesterAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRequesterAdapter creates a new requester adapter
func NewRequesterAdapter(client *postgres.Client) repositories.RequesterRepository {
	return &RequesterAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new requester
func (a *RequesterAdapter) Create(ctx context.Context, requester *entities.Requester) error {
	record := goqu.Record{
		"id":         requester.ID,
		"name":       requester.Name,
		"email":      requester.Email,
		"phone":      sql.NullString{String: requester.Phone, Valid: requester.Phone != ""},
		"created_at": requester.CreatedAt,
		"updated_at": requester.UpdatedAt,
	}

	query, args, err := a.db.Insert("requesters").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create requester", err)
	}
	return nil
}

// GetByID retrieves a requester by ID
func (a *RequesterAdapter) GetByID(ctx context.Context, id string) (*entities.Requester, error) {
	query, args, err := a.db.Select(
		"id", "name", "email", "phone", "created_at", "updated_at",
	).From("requesters").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	requester := &entities.Requester{}
	var phone sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&requester.ID,
		&requester.Name,
		&requester.Email,
		&phone,
		&requester.CreatedAt,
		&requester.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("requester with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get requester", err)
	}
	requester.Phone = phone.String

	return requester, nil
}

// Update updates a requester's profile fields
func (a *RequesterAdapter) Update(ctx context.Context, requester *entities.Requester) error {
	requester.UpdatedAt = time.Now().UTC()

	record := goqu.Record{
		"name":       requester.Name,
		"email":      requester.Email,
		"phone":      sql.NullString{String: requester.Phone, Valid: requester.Phone != ""},
		"updated_at": requester.UpdatedAt,
	}

	query, args, err := a.db.Update("requesters").
		Set(record).
		Where(goqu.Ex{"id": requester.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update requester", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("requester with id %s not found", requester.ID))
	}
	return nil
}
