package entities

import "time"

// ReservationEventType identifies a reservation lifecycle event
type ReservationEventType string

const (
	EventReservationConfirmed ReservationEventType = "reservation.confirmed"
	EventReservationCancelled ReservationEventType = "reservation.cancelled"
	EventWindowCancelled      ReservationEventType = "window.cancelled"
)

// ReservationEvent is published on the event bus after a booking state
// change commits. Delivery is best effort; no scheduling invariant depends
// on it.
type ReservationEvent struct {
	ID            string               `json:"id"`
	Type          ReservationEventType `json:"type"`
	ReservationID string               `json:"reservation_id,omitempty"`
	ProviderID    string               `json:"provider_id"`
	RequesterID   string               `json:"requester_id,omitempty"`
	Date          string               `json:"date"`
	Time          string               `json:"time,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}
