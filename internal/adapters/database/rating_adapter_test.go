package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/docsched/backend/internal/adapters/database"
	"github.com/docsched/backend/internal/domain/entities"
	apperrors "github.com/docsched/backend/pkg/errors"
)

func sampleRatingEntry() *entities.RatingEntry {
	return &entities.RatingEntry{
		ID:          "rate-1",
		RequesterID: "req-1",
		ProviderID:  "prov-1",
		Score:       5,
		Comment:     "great",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestRatingAdapter_Apply(t *testing.T) {
	t.Run("inserts the entry and folds the score in one statement", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewRatingAdapter(client)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "rating_entries"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`UPDATE "providers" SET .* RETURNING "rating", "rating_count"`).
			WillReturnRows(sqlmock.NewRows([]string{"rating", "rating_count"}).AddRow(4.5, 2))
		mock.ExpectCommit()

		summary, err := adapter.Apply(context.Background(), sampleRatingEntry())

		assert.NoError(t, err)
		assert.Equal(t, 4.5, summary.Rating)
		assert.Equal(t, 2, summary.RatingCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown provider reports NotFound and rolls back", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewRatingAdapter(client)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "rating_entries"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`UPDATE "providers" SET`).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := adapter.Apply(context.Background(), sampleRatingEntry())

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRatingAdapter_ListByProvider(t *testing.T) {
	t.Run("scans entries with nullable comments", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewRatingAdapter(client)

		rows := sqlmock.NewRows([]string{"id", "requester_id", "provider_id", "score", "comment", "created_at"}).
			AddRow("rate-2", "req-1", "prov-1", 4.0, nil, time.Now()).
			AddRow("rate-1", "req-2", "prov-1", 5.0, "great", time.Now())
		mock.ExpectQuery(`SELECT .* FROM "rating_entries"`).WillReturnRows(rows)

		entries, err := adapter.ListByProvider(context.Background(), "prov-1", 10, 0)

		assert.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Equal(t, "", entries[0].Comment)
		assert.Equal(t, "great", entries[1].Comment)
	})
}
