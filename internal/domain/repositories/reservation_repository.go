package repositories

import (
	"context"

	"github.com/docsched/backend/internal/domain/entities"
)

// ReservationRepository defines the interface for reservation data operations
type ReservationRepository interface {
	// CreateWithinCapacity atomically counts live reservations falling inside
	// the slot's interval for the reservation's provider and date, and inserts
	// the reservation only if the count is below maxBookingsPerSlot. The
	// count-check and insert commit as one unit; concurrent bookers can never
	// both take the last opening. Returns a CAPACITY/SlotFull error when the
	// slot is full and a TRANSIENT error on serialization failure.
	CreateWithinCapacity(ctx context.Context, reservation *entities.Reservation, slot entities.Slot, maxBookingsPerSlot int) error

	// GetByID retrieves a reservation by ID
	GetByID(ctx context.Context, id string) (*entities.Reservation, error)

	// Cancel marks a live reservation cancelled. Cancelling an absent or
	// already-cancelled reservation returns NotFound.
	Cancel(ctx context.Context, id string) error

	// Reschedule atomically moves a live reservation to a new date and time,
	// subject to the same capacity check as CreateWithinCapacity
	Reschedule(ctx context.Context, id, date, clock string, slot entities.Slot, maxBookingsPerSlot int) error

	// CountLive counts live reservations for provider+date whose time falls
	// in [slot.StartTime, slot.EndTime)
	CountLive(ctx context.Context, providerID, date string, slot entities.Slot) (int, error)

	// ListByRequester retrieves a requester's reservations
	ListByRequester(ctx context.Context, requesterID string, filter ReservationFilter) ([]*entities.Reservation, error)

	// ListByProvider retrieves a provider's reservations
	ListByProvider(ctx context.Context, providerID string, filter ReservationFilter) ([]*entities.Reservation, error)
}

// ReservationFilter defines filters for listing reservations
type ReservationFilter struct {
	Status   entities.ReservationStatus
	FromDate string
	ToDate   string
	Limit    int
	Offset   int
}
