package database_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsched/backend/internal/adapters/database"
	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/docsched/backend/pkg/errors"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *postgres.Client) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, postgres.NewClientFromDB(db)
}

func sampleReservation() *entities.Reservation {
	return &entities.Reservation{
		ID:          "res-1",
		ProviderID:  "prov-1",
		RequesterID: "req-1",
		Date:        "2026-09-15",
		Time:        "09:30",
		Status:      entities.ReservationStatusConfirmed,
	}
}

func TestReservationAdapter_CreateWithinCapacity(t *testing.T) {
	slot := entities.Slot{StartTime: "09:00", EndTime: "10:00"}

	t.Run("counts then inserts inside one transaction", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewReservationAdapter(client, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectExec(`INSERT INTO "reservations"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := adapter.CreateWithinCapacity(context.Background(), sampleReservation(), slot, 5)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects with SlotFull when the count meets the limit", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewReservationAdapter(client, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.ExpectRollback()

		err := adapter.CreateWithinCapacity(context.Background(), sampleReservation(), slot, 5)

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeCapacity, apperrors.TypeOf(err))
		assert.Equal(t, apperrors.CodeSlotFull, apperrors.CodeOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps serialization failures to transient errors", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewReservationAdapter(client, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO "reservations"`).
			WillReturnError(&pq.Error{Code: "40001"})
		mock.ExpectRollback()

		err := adapter.CreateWithinCapacity(context.Background(), sampleReservation(), slot, 5)

		assert.Error(t, err)
		assert.True(t, apperrors.IsTransient(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps deadlocks to transient errors", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewReservationAdapter(client, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO "reservations"`).
			WillReturnError(&pq.Error{Code: "40P01"})
		mock.ExpectRollback()

		err := adapter.CreateWithinCapacity(context.Background(), sampleReservation(), slot, 5)

		assert.True(t, apperrors.IsTransient(err))
	})
}

func TestReservationAdapter_Cancel(t *testing.T) {
	t.Run("cancels a live reservation", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewReservationAdapter(client, nil)

		mock.ExpectExec(`UPDATE "reservations" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.Cancel(context.Background(), "res-1")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("a second cancel touches no rows and reports NotFound", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewReservationAdapter(client, nil)

		mock.ExpectExec(`UPDATE "reservations" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.Cancel(context.Background(), "res-1")

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
	})
}

func TestReservationAdapter_Reschedule(t *testing.T) {
	slot := entities.Slot{StartTime: "10:00", EndTime: "11:00"}

	t.Run("excludes the moving reservation from its own capacity count", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewReservationAdapter(client, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "provider_id" FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"provider_id"}).AddRow("prov-1"))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`UPDATE "reservations" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := adapter.Reschedule(context.Background(), "res-1", "2026-09-16", "10:15", slot, 1)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled reservations cannot be moved", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewReservationAdapter(client, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "provider_id" FROM "reservations"`).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := adapter.Reschedule(context.Background(), "res-1", "2026-09-16", "10:15", slot, 1)

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
	})
}

func TestReservationAdapter_GetByID(t *testing.T) {
	t.Run("missing reservation reports NotFound", func(t *testing.T) {
		db, mock, client := setupMockDB(t)
		defer db.Close()
		adapter := database.NewReservationAdapter(client, nil)

		mock.ExpectQuery(`SELECT .* FROM "reservations"`).
			WillReturnError(sql.ErrNoRows)

		_, err := adapter.GetByID(context.Background(), "ghost")

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
	})
}
