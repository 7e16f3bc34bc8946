package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
	"github.com/docsched/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/docsched/backend/pkg/errors"
)

// RatingAdapter implements the RatingRepository interface
type RatingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRatingAdapter creates a new rating adapter
func NewRatingAdapter(client *postgres.Client) repositories.RatingRepository {
	return &RatingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Apply records the rating entry and folds its score into the provider's
// running mean. The mean update is a single UPDATE statement, so the
// read-modify-write of (rating, rating_count) is atomic per provider row;
// concurrent ratings serialize on the row lock and none are lost.
func (a *RatingAdapter) Apply(ctx context.Context, entry *entities.RatingEntry) (*entities.RatingSummary, error) {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin rating transaction", err)
	}
	defer tx.Rollback()

	query, args, err := a.db.Insert("rating_entries").Rows(goqu.Record{
		"id":           entry.ID,
		"requester_id": entry.RequesterID,
		"provider_id":  entry.ProviderID,
		"score":        entry.Score,
		"comment":      sql.NullString{String: entry.Comment, Valid: entry.Comment != ""},
		"created_at":   entry.CreatedAt,
	}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build rating insert query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to create rating entry", err)
	}

	query, args, err = a.db.Update("providers").
		Set(goqu.Record{
			"rating":       goqu.L("((rating * rating_count) + ?) / (rating_count + 1)", entry.Score),
			"rating_count": goqu.L("rating_count + 1"),
			"updated_at":   goqu.L("NOW()"),
		}).
		Where(goqu.Ex{"id": entry.ProviderID}).
		Returning("rating", "rating_count").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build rating update query", err)
	}

	summary := &entities.RatingSummary{}
	err = tx.QueryRowContext(ctx, query, args...).Scan(&summary.Rating, &summary.RatingCount)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", entry.ProviderID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update provider rating", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("failed to commit rating transaction", err)
	}
	return summary, nil
}

// ListByProvider retrieves rating entries for a provider, newest first
func (a *RatingAdapter) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*entities.RatingEntry, error) {
	ds := a.db.Select("id", "requester_id", "provider_id", "score", "comment", "created_at").
		From("rating_entries").
		Where(goqu.Ex{"provider_id": providerID}).
		Order(goqu.I("created_at").Desc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build rating list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list rating entries", err)
	}
	defer rows.Close()

	var entries []*entities.RatingEntry
	for rows.Next() {
		entry := &entities.RatingEntry{}
		var comment sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.RequesterID,
			&entry.ProviderID,
			&entry.Score,
			&comment,
			&entry.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan rating entry", err)
		}
		entry.Comment = comment.String
		entries = append(entries, entry)
	}
	return entries, nil
}
