package entities

import (
	"time"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusCompleted ReservationStatus = "completed"
)

// Reservation is a confirmed booking of one unit of a slot's capacity. It
// lives independently of the provider's window structure; capacity is
// enforced by counting live reservations against the matched slot, never by
// mutable per-slot flags.
type Reservation struct {
	ID          string            `json:"id" db:"id"`
	ProviderID  string            `json:"provider_id" db:"provider_id"`
	RequesterID string            `json:"requester_id" db:"requester_id"`
	Date        string            `json:"date" db:"date"`
	Time        string            `json:"time" db:"time"`
	Status      ReservationStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// Live reports whether the reservation still consumes slot capacity
func (r *Reservation) Live() bool {
	return r.Status != ReservationStatusCancelled
}

// SlotAvailability pairs a slot with its remaining derived capacity
type SlotAvailability struct {
	Slot      Slot `json:"slot"`
	Remaining int  `json:"remaining"`
}

// WindowAvailability is the availability read model for one date
type WindowAvailability struct {
	Date               string             `json:"date"`
	MaxBookingsPerSlot int                `json:"max_bookings_per_slot"`
	Slots              []SlotAvailability `json:"slots"`
}
