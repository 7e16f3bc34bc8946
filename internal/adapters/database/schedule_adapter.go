package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
	"github.com/docsched/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/docsched/backend/pkg/errors"
)

// ScheduleAdapter implements the ScheduleRepository interface
type ScheduleAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewScheduleAdapter creates a new schedule adapter
func NewScheduleAdapter(client *postgres.Client) repositories.ScheduleRepository {
	return &ScheduleAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetWindow retrieves the window (with slots) for a provider and date
func (a *ScheduleAdapter) GetWindow(ctx context.Context, providerID, date string) (*entities.AvailabilityWindow, error) {
	query, args, err := a.db.Select(
		"id", "provider_id", "date", "max_bookings_per_slot", "created_at", "updated_at",
	).From("availability_windows").
		Where(goqu.Ex{"provider_id": providerID, "date": date}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build window query", err)
	}

	window := &entities.AvailabilityWindow{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&window.ID,
		&window.ProviderID,
		&window.Date,
		&window.MaxBookingsPerSlot,
		&window.CreatedAt,
		&window.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no availability window for provider %s on %s", providerID, date))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get availability window", err)
	}

	slots, err := a.loadSlots(ctx, window.ID)
	if err != nil {
		return nil, err
	}
	window.Slots = slots

	return window, nil
}

// ListWindows retrieves a provider's windows within [from, to] inclusive
func (a *ScheduleAdapter) ListWindows(ctx context.Context, providerID, from, to string) ([]*entities.AvailabilityWindow, error) {
	ds := a.db.Select(
		"id", "provider_id", "date", "max_bookings_per_slot", "created_at", "updated_at",
	).From("availability_windows").
		Where(goqu.Ex{"provider_id": providerID})

	if from != "" {
		ds = ds.Where(goqu.C("date").Gte(from))
	}
	if to != "" {
		ds = ds.Where(goqu.C("date").Lte(to))
	}

	query, args, err := ds.Order(goqu.I("date").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build windows query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list availability windows", err)
	}
	defer rows.Close()

	var windows []*entities.AvailabilityWindow
	for rows.Next() {
		window := &entities.AvailabilityWindow{}
		if err := rows.Scan(
			&window.ID,
			&window.ProviderID,
			&window.Date,
			&window.MaxBookingsPerSlot,
			&window.CreatedAt,
			&window.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan availability window", err)
		}
		windows = append(windows, window)
	}

	for _, window := range windows {
		slots, err := a.loadSlots(ctx, window.ID)
		if err != nil {
			return nil, err
		}
		window.Slots = slots
	}

	return windows, nil
}

// CreateWindow creates a window with its slots
func (a *ScheduleAdapter) CreateWindow(ctx context.Context, window *entities.AvailabilityWindow) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query, args, err := a.db.Insert("availability_windows").Rows(goqu.Record{
		"id":                    window.ID,
		"provider_id":           window.ProviderID,
		"date":                  window.Date,
		"max_bookings_per_slot": window.MaxBookingsPerSlot,
		"created_at":            window.CreatedAt,
		"updated_at":            window.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build window insert query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create availability window", err)
	}

	if err := a.insertSlots(ctx, tx, window.ID, window.Slots); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit window creation", err)
	}
	return nil
}

// AppendSlots adds slots to an existing window and updates its capacity limit
func (a *ScheduleAdapter) AppendSlots(ctx context.Context, windowID string, slots []entities.Slot, maxBookingsPerSlot int) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query, args, err := a.db.Update("availability_windows").
		Set(goqu.Record{
			"max_bookings_per_slot": maxBookingsPerSlot,
			"updated_at":            time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": windowID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build window update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update availability window", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("availability window %s not found", windowID))
	}

	if err := a.insertSlots(ctx, tx, windowID, slots); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit slot append", err)
	}
	return nil
}

// ReplaceSlots swaps the window's slot set wholesale
func (a *ScheduleAdapter) ReplaceSlots(ctx context.Context, windowID string, slots []entities.Slot) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query, args, err := a.db.Delete("availability_slots").
		Where(goqu.Ex{"window_id": windowID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build slot delete query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete existing slots", err)
	}

	if err := a.insertSlots(ctx, tx, windowID, slots); err != nil {
		return err
	}

	query, args, err = a.db.Update("availability_windows").
		Set(goqu.Record{"updated_at": time.Now().UTC()}).
		Where(goqu.Ex{"id": windowID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build window touch query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to touch availability window", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit slot replacement", err)
	}
	return nil
}

// DeleteWindow removes the window and its slots, cancelling live reservations
// for that provider and date in the same transaction
func (a *ScheduleAdapter) DeleteWindow(ctx context.Context, providerID, date string) ([]*entities.Reservation, error) {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query, args, err := a.db.Select("id").
		From("availability_windows").
		Where(goqu.Ex{"provider_id": providerID, "date": date}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build window lookup query", err)
	}

	var windowID string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&windowID)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no availability window for provider %s on %s", providerID, date))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up availability window", err)
	}

	// Orphaned reservations are not an option: every live reservation for the
	// cancelled date flips to cancelled in the same commit.
	now := time.Now().UTC()
	query, args, err = a.db.Update("reservations").
		Set(goqu.Record{
			"status":     entities.ReservationStatusCancelled,
			"updated_at": now,
		}).
		Where(
			goqu.Ex{"provider_id": providerID, "date": date},
			goqu.C("status").Neq(string(entities.ReservationStatusCancelled)),
		).
		Returning("id", "provider_id", "requester_id", "date", "time", "status", "created_at", "updated_at").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build reservation cascade query", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to cancel dependent reservations", err)
	}
	cancelled, err := scanReservations(rows)
	if err != nil {
		return nil, err
	}

	query, args, err = a.db.Delete("availability_slots").
		Where(goqu.Ex{"window_id": windowID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build slot delete query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to delete window slots", err)
	}

	query, args, err = a.db.Delete("availability_windows").
		Where(goqu.Ex{"id": windowID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build window delete query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to delete availability window", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("failed to commit window deletion", err)
	}
	return cancelled, nil
}

func (a *ScheduleAdapter) loadSlots(ctx context.Context, windowID string) ([]entities.Slot, error) {
	query, args, err := a.db.Select("id", "start_time", "end_time").
		From("availability_slots").
		Where(goqu.Ex{"window_id": windowID}).
		Order(goqu.I("start_time").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build slots query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load slots", err)
	}
	defer rows.Close()

	var slots []entities.Slot
	for rows.Next() {
		var slot entities.Slot
		if err := rows.Scan(&slot.ID, &slot.StartTime, &slot.EndTime); err != nil {
			return nil, apperrors.NewInternalError("failed to scan slot", err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (a *ScheduleAdapter) insertSlots(ctx context.Context, tx *sql.Tx, windowID string, slots []entities.Slot) error {
	if len(slots) == 0 {
		return nil
	}

	records := make([]interface{}, 0, len(slots))
	for _, slot := range slots {
		id := slot.ID
		if id == "" {
			id = uuid.New().String()
		}
		records = append(records, goqu.Record{
			"id":         id,
			"window_id":  windowID,
			"start_time": slot.StartTime,
			"end_time":   slot.EndTime,
		})
	}

	query, args, err := a.db.Insert("availability_slots").Rows(records...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build slot insert query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert slots", err)
	}
	return nil
}
