package entities

import (
	"time"
)

// DefaultMaxBookingsPerSlot is the window capacity limit applied when a
// provider does not specify one.
const DefaultMaxBookingsPerSlot = 5

// Provider represents the supplying party in a scheduling relationship.
// Rating is a running mean maintained incrementally; it is defined as 0
// while RatingCount is 0.
type Provider struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	Specialization string    `json:"specialization" db:"specialization"`
	Location       string    `json:"location" db:"location"`
	ExperienceYrs  int       `json:"experience_years" db:"experience_years"`
	Rating         float64   `json:"rating" db:"rating"`
	RatingCount    int       `json:"rating_count" db:"rating_count"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Slot is a [StartTime, EndTime) half-open interval within a window, local
// time-of-day at minute granularity ("15:04" wall clock strings).
type Slot struct {
	ID        string `json:"id" db:"id"`
	StartTime string `json:"start_time" db:"start_time"`
	EndTime   string `json:"end_time" db:"end_time"`
}

// Contains reports whether the clock value t ("15:04") falls inside the
// slot's half-open interval. Malformed inputs never match.
func (s Slot) Contains(t string) bool {
	tm, err := ParseClock(t)
	if err != nil {
		return false
	}
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return false
	}
	return tm >= start && tm < end
}

// Validate checks that the slot is a well-formed non-empty interval
func (s Slot) Validate() error {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return ErrSlotInverted
	}
	return nil
}

// AvailabilityWindow is a provider's date-scoped container of slots with a
// shared per-slot capacity limit. Window dates have no time-of-day component.
type AvailabilityWindow struct {
	ID                 string    `json:"id" db:"id"`
	ProviderID         string    `json:"provider_id" db:"provider_id"`
	Date               string    `json:"date" db:"date"`
	MaxBookingsPerSlot int       `json:"max_bookings_per_slot" db:"max_bookings_per_slot"`
	Slots              []Slot    `json:"slots"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// FindSlot resolves the slot containing the requested time-of-day. Matching
// is by containment, not by start-time equality; with overlapping slots the
// earliest-starting containing slot wins, regardless of slice order.
func (w *AvailabilityWindow) FindSlot(t string) *Slot {
	var match *Slot
	for i := range w.Slots {
		if !w.Slots[i].Contains(t) {
			continue
		}
		if match == nil || w.Slots[i].StartTime < match.StartTime {
			match = &w.Slots[i]
		}
	}
	return match
}

// HasSlotStartingAt reports whether any slot in the window starts exactly at t
func (w *AvailabilityWindow) HasSlotStartingAt(t string) bool {
	for _, s := range w.Slots {
		if s.StartTime == t {
			return true
		}
	}
	return false
}
