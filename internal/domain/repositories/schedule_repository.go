package repositories

import (
	"context"

	"github.com/docsched/backend/internal/domain/entities"
)

// ScheduleRepository defines the interface for availability window operations.
// Windows and their slots are only ever mutated through their owning provider.
type ScheduleRepository interface {
	// GetWindow retrieves the window (with slots) for a provider and date
	GetWindow(ctx context.Context, providerID, date string) (*entities.AvailabilityWindow, error)

	// ListWindows retrieves a provider's windows within [from, to] inclusive
	ListWindows(ctx context.Context, providerID, from, to string) ([]*entities.AvailabilityWindow, error)

	// CreateWindow creates a window with its slots
	CreateWindow(ctx context.Context, window *entities.AvailabilityWindow) error

	// AppendSlots adds slots to an existing window and updates its capacity limit
	AppendSlots(ctx context.Context, windowID string, slots []entities.Slot, maxBookingsPerSlot int) error

	// ReplaceSlots swaps the window's slot set wholesale
	ReplaceSlots(ctx context.Context, windowID string, slots []entities.Slot) error

	// DeleteWindow removes the window and its slots, cancelling any live
	// reservations for that provider and date in the same transaction.
	// It returns the cancelled reservations.
	DeleteWindow(ctx context.Context, providerID, date string) ([]*entities.Reservation, error)
}
