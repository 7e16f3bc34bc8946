package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
	"github.com/docsched/backend/internal/infrastructure/clients/postgres"
	"github.com/docsched/backend/internal/infrastructure/observability"
	apperrors "github.com/docsched/backend/pkg/errors"
)

// Postgres SQLSTATEs that mean the transaction lost a concurrency race and
// the whole attempt is safe to retry
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

var reservationColumns = []interface{}{
	"id", "provider_id", "requester_id", "date", "time", "status", "created_at", "updated_at",
}

// ReservationAdapter implements the ReservationRepository interface
type ReservationAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewReservationAdapter creates a new reservation adapter
func NewReservationAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.ReservationRepository {
	return &ReservationAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// CreateWithinCapacity atomically counts live reservations inside the slot's
// interval and inserts the reservation only if capacity remains. The count
// and insert run in one serializable transaction: two concurrent bookers
// against the last opening cannot both commit; the loser surfaces a
// serialization failure mapped to a transient, retryable error.
func (a *ReservationAdapter) CreateWithinCapacity(ctx context.Context, reservation *entities.Reservation, slot entities.Slot, maxBookingsPerSlot int) error {
	start := time.Now()
	defer func() {
		observability.RecordDBMetric(ctx, a.metrics, "booking_tx", time.Since(start))
	}()

	tx, err := a.client.BeginSerializableTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin booking transaction", err)
	}
	defer tx.Rollback()

	count, err := a.countLiveTx(ctx, tx, reservation.ProviderID, reservation.Date, slot, "")
	if err != nil {
		return err
	}
	if count >= maxBookingsPerSlot {
		return apperrors.NewCapacityError(apperrors.CodeSlotFull,
			fmt.Sprintf("slot %s-%s on %s is fully booked", slot.StartTime, slot.EndTime, reservation.Date))
	}

	query, args, err := a.db.Insert("reservations").Rows(goqu.Record{
		"id":           reservation.ID,
		"provider_id":  reservation.ProviderID,
		"requester_id": reservation.RequesterID,
		"date":         reservation.Date,
		"time":         reservation.Time,
		"status":       reservation.Status,
		"created_at":   reservation.CreatedAt,
		"updated_at":   reservation.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build reservation insert query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return wrapTxError("failed to create reservation", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapTxError("failed to commit booking transaction", err)
	}
	return nil
}

// GetByID retrieves a reservation by ID
func (a *ReservationAdapter) GetByID(ctx context.Context, id string) (*entities.Reservation, error) {
	query, args, err := a.db.Select(reservationColumns...).
		From("reservations").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build reservation query", err)
	}

	reservation := &entities.Reservation{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&reservation.ID,
		&reservation.ProviderID,
		&reservation.RequesterID,
		&reservation.Date,
		&reservation.Time,
		&reservation.Status,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("reservation with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get reservation", err)
	}
	return reservation, nil
}

// Cancel marks a live reservation cancelled. Capacity release is implicit:
// the booking path derives capacity by counting live reservations, so there
// is no slot state to unwind. A second cancel finds no live row and reports
// NotFound without touching the count.
func (a *ReservationAdapter) Cancel(ctx context.Context, id string) error {
	query, args, err := a.db.Update("reservations").
		Set(goqu.Record{
			"status":     entities.ReservationStatusCancelled,
			"updated_at": goqu.L("NOW()"),
		}).
		Where(
			goqu.Ex{"id": id},
			goqu.C("status").Neq(string(entities.ReservationStatusCancelled)),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build cancel query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to cancel reservation", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("reservation with id %s not found", id))
	}
	return nil
}

// Reschedule atomically moves a live reservation to a new date and time,
// subject to the same capacity check as CreateWithinCapacity
func (a *ReservationAdapter) Reschedule(ctx context.Context, id, date, clock string, slot entities.Slot, maxBookingsPerSlot int) error {
	start := time.Now()
	defer func() {
		observability.RecordDBMetric(ctx, a.metrics, "reschedule_tx", time.Since(start))
	}()

	tx, err := a.client.BeginSerializableTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin reschedule transaction", err)
	}
	defer tx.Rollback()

	query, args, err := a.db.Select("provider_id").
		From("reservations").
		Where(
			goqu.Ex{"id": id},
			goqu.C("status").Neq(string(entities.ReservationStatusCancelled)),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build reservation lookup query", err)
	}

	var providerID string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&providerID)
	if err == sql.ErrNoRows {
		return apperrors.NewNotFoundError(fmt.Sprintf("reservation with id %s not found", id))
	}
	if err != nil {
		return wrapTxError("failed to look up reservation", err)
	}

	// The reservation being moved must not count against its own target slot
	count, err := a.countLiveTx(ctx, tx, providerID, date, slot, id)
	if err != nil {
		return err
	}
	if count >= maxBookingsPerSlot {
		return apperrors.NewCapacityError(apperrors.CodeSlotFull,
			fmt.Sprintf("slot %s-%s on %s is fully booked", slot.StartTime, slot.EndTime, date))
	}

	query, args, err = a.db.Update("reservations").
		Set(goqu.Record{
			"date":       date,
			"time":       clock,
			"updated_at": goqu.L("NOW()"),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build reschedule query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return wrapTxError("failed to reschedule reservation", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapTxError("failed to commit reschedule transaction", err)
	}
	return nil
}

// CountLive counts live reservations for provider+date whose time falls in
// [slot.StartTime, slot.EndTime)
func (a *ReservationAdapter) CountLive(ctx context.Context, providerID, date string, slot entities.Slot) (int, error) {
	query, args, err := a.liveCountQuery(providerID, date, slot, "")
	if err != nil {
		return 0, err
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count reservations", err)
	}
	return count, nil
}

// ListByRequester retrieves a requester's reservations
func (a *ReservationAdapter) ListByRequester(ctx context.Context, requesterID string, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	return a.list(ctx, goqu.Ex{"requester_id": requesterID}, filter)
}

// ListByProvider retrieves a provider's reservations
func (a *ReservationAdapter) ListByProvider(ctx context.Context, providerID string, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	return a.list(ctx, goqu.Ex{"provider_id": providerID}, filter)
}

func (a *ReservationAdapter) list(ctx context.Context, owner goqu.Ex, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	ds := a.db.Select(reservationColumns...).
		From("reservations").
		Where(owner)

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}
	if filter.FromDate != "" {
		ds = ds.Where(goqu.C("date").Gte(filter.FromDate))
	}
	if filter.ToDate != "" {
		ds = ds.Where(goqu.C("date").Lte(filter.ToDate))
	}

	ds = ds.Order(goqu.I("date").Desc(), goqu.I("time").Desc())

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
		return nil, apperrors.NewInternalError("failed to list reservations", err)
	}
	return scanReservations(rows)
}

func (a *ReservationAdapter) countLiveTx(ctx context.Context, tx *sql.Tx, providerID, date string, slot entities.Slot, excludeID string) (int, error) {
	query, args, err := a.liveCountQuery(providerID, date, slot, excludeID)
	if err != nil {
		return 0, err
	}

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, wrapTxError("failed to count reservations", err)
	}
	return count, nil
}

func (a *ReservationAdapter) liveCountQuery(providerID, date string, slot entities.Slot, excludeID string) (string, []interface{}, error) {
	ds := a.db.Select(goqu.COUNT("*")).
		From("reservations").
		Where(
			goqu.Ex{"provider_id": providerID, "date": date},
			goqu.C("time").Gte(slot.StartTime),
			goqu.C("time").Lt(slot.EndTime),
			goqu.C("status").Neq(string(entities.ReservationStatusCancelled)),
		)
	if excludeID != "" {
		ds = ds.Where(goqu.C("id").Neq(excludeID))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to build count query", err)
	}
	return query, args, nil
}

func scanReservations(rows *sql.Rows) ([]*entities.Reservation, error) {
	defer rows.Close()

	var reservations []*entities.Reservation
	for rows.Next() {
		reservation := &entities.Reservation{}
		if err := rows.Scan(
			&reservation.ID,
			&reservation.ProviderID,
			&reservation.RequesterID,
			&reservation.Date,
			&reservation.Time,
			&reservation.Status,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan reservation", err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}

// wrapTxError maps concurrency-race SQLSTATEs to transient errors so the
// service layer can retry the whole booking attempt
func wrapTxError(message string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) == pqSerializationFailure || string(pqErr.Code) == pqDeadlockDetected {
			return apperrors.NewTransientError(message, err)
		}
	}
	return apperrors.NewInternalError(message, err)
}
