package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/providers"
	"github.com/docsched/backend/internal/domain/repositories"
	apperrors "github.com/docsched/backend/pkg/errors"
)

// minSameDayLead is the minimum lead time for same-day slots and bookings
const minSameDayLead = time.Hour

// ScheduleService owns a provider's availability ledger: date-keyed windows
// of slots with a shared capacity limit
type ScheduleService struct {
	scheduleRepo    repositories.ScheduleRepository
	providerRepo    repositories.ProviderRepository
	reservationRepo repositories.ReservationRepository
	eventBus        providers.EventBus
}

// NewScheduleService creates a new schedule service
func NewScheduleService(
	scheduleRepo repositories.ScheduleRepository,
	providerRepo repositories.ProviderRepository,
	reservationRepo repositories.ReservationRepository,
	eventBus providers.EventBus,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo:    scheduleRepo,
		providerRepo:    providerRepo,
		reservationRepo: reservationRepo,
		eventBus:        eventBus,
	}
}

// AddWindow adds slots for a date, creating the window if absent. Slots that
// start less than an hour from now on a same-day window are dropped, as are
// slots duplicating an existing start time for that date; if nothing
// survives the request fails with NoValidSlots.
func (s *ScheduleService) AddWindow(ctx context.Context, providerID, date string, slots []entities.Slot, maxBookingsPerSlot int) (*entities.AvailabilityWindow, error) {
	if _, err := s.providerRepo.GetByID(ctx, providerID); err != nil {
		return nil, err
	}
	if err := validateWindowDate(date); err != nil {
		return nil, err
	}
	if err := validateSlots(slots); err != nil {
		return nil, err
	}

	window, err := s.scheduleRepo.GetWindow(ctx, providerID, date)
	if err != nil && apperrors.TypeOf(err) != apperrors.ErrorTypeNotFound {
		return nil, err
	}

	surviving := filterLeadTime(date, slots, time.Now())
	surviving = dedupeSlots(surviving, window)
	if len(surviving) == 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeNoValidSlots,
			"no valid slots remain after filtering")
	}

	if maxBookingsPerSlot <= 0 {
		if window != nil {
			maxBookingsPerSlot = window.MaxBookingsPerSlot
		} else {
			maxBookingsPerSlot = entities.DefaultMaxBookingsPerSlot
		}
	}

	if window == nil {
		now := time.Now().UTC()
		window = &entities.AvailabilityWindow{
			ID:                 uuid.New().String(),
			ProviderID:         providerID,
			Date:               date,
			MaxBookingsPerSlot: maxBookingsPerSlot,
			Slots:              surviving,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.scheduleRepo.CreateWindow(ctx, window); err != nil {
			return nil, err
		}
		return window, nil
	}

	if err := s.scheduleRepo.AppendSlots(ctx, window.ID, surviving, maxBookingsPerSlot); err != nil {
		return nil, err
	}
	return s.scheduleRepo.GetWindow(ctx, providerID, date)
}

// UpdateWindow replaces the slot set for a date wholesale, creating the
// window if absent. The same-day lead-time filter applies.
func (s *ScheduleService) UpdateWindow(ctx context.Context, providerID, date string, slots []entities.Slot) (*entities.AvailabilityWindow, error) {
	if _, err := s.providerRepo.GetByID(ctx, providerID); err != nil {
		return nil, err
	}
	if err := validateWindowDate(date); err != nil {
		return nil, err
	}
	if err := validateSlots(slots); err != nil {
		return nil, err
	}

	surviving := dedupeSlots(filterLeadTime(date, slots, time.Now()), nil)
	if len(surviving) == 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeNoValidSlots,
			"no valid slots remain after filtering")
	}

	window, err := s.scheduleRepo.GetWindow(ctx, providerID, date)
	if err != nil {
		if apperrors.TypeOf(err) != apperrors.ErrorTypeNotFound {
			return nil, err
		}
		now := time.Now().UTC()
		window = &entities.AvailabilityWindow{
			ID:                 uuid.New().String(),
			ProviderID:         providerID,
			Date:               date,
			MaxBookingsPerSlot: entities.DefaultMaxBookingsPerSlot,
			Slots:              surviving,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.scheduleRepo.CreateWindow(ctx, window); err != nil {
			return nil, err
		}
		return window, nil
	}

	if err := s.scheduleRepo.ReplaceSlots(ctx, window.ID, surviving); err != nil {
		return nil, err
	}
	return s.scheduleRepo.GetWindow(ctx, providerID, date)
}

// CancelWindow removes the window for a date. Live reservations referencing
// the cancelled date are cascade-cancelled in the same commit and a
// cancellation event is published for each, so requesters are notified
// rather than silently orphaned.
func (s *ScheduleService) CancelWindow(ctx context.Context, providerID, date string) error {
	if _, err := s.providerRepo.GetByID(ctx, providerID); err != nil {
		return err
	}

	cancelled, err := s.scheduleRepo.DeleteWindow(ctx, providerID, date)
	if err != nil {
		return err
	}

	s.publishEvent(ctx, &entities.ReservationEvent{
		ID:         uuid.New().String(),
		Type:       entities.EventWindowCancelled,
		ProviderID: providerID,
		Date:       date,
		OccurredAt: time.Now().UTC(),
	})
	for _, reservation := range cancelled {
		s.publishEvent(ctx, &entities.ReservationEvent{
			ID:            uuid.New().String(),
			Type:          entities.EventReservationCancelled,
			ReservationID: reservation.ID,
			ProviderID:    reservation.ProviderID,
			RequesterID:   reservation.RequesterID,
			Date:          reservation.Date,
			Time:          reservation.Time,
			OccurredAt:    time.Now().UTC(),
		})
	}
	return nil
}

// GetAvailability returns a provider's windows in [from, to] with remaining
// capacity per slot, derived by counting live reservations
func (s *ScheduleService) GetAvailability(ctx context.Context, providerID, from, to string) ([]entities.WindowAvailability, error) {
	if _, err := s.providerRepo.GetByID(ctx, providerID); err != nil {
		return nil, err
	}

	windows, err := s.scheduleRepo.ListWindows(ctx, providerID, from, to)
	if err != nil {
		return nil, err
	}

	availability := make([]entities.WindowAvailability, 0, len(windows))
	for _, window := range windows {
		wa := entities.WindowAvailability{
			Date:               window.Date,
			MaxBookingsPerSlot: window.MaxBookingsPerSlot,
			Slots:              make([]entities.SlotAvailability, 0, len(window.Slots)),
		}
		for _, slot := range window.Slots {
			count, err := s.reservationRepo.CountLive(ctx, providerID, window.Date, slot)
			if err != nil {
				return nil, err
			}
			remaining := window.MaxBookingsPerSlot - count
			if remaining < 0 {
				remaining = 0
			}
			wa.Slots = append(wa.Slots, entities.SlotAvailability{Slot: slot, Remaining: remaining})
		}
		availability = append(availability, wa)
	}
	return availability, nil
}

func (s *ScheduleService) publishEvent(ctx context.Context, event *entities.ReservationEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, "reservations.events", event); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("failed to publish schedule event")
	}
}

// validateWindowDate rejects malformed dates and dates before today
func validateWindowDate(date string) error {
	d, err := entities.ParseDate(date)
	if err != nil {
		return apperrors.NewValidationError(apperrors.CodeInvalidDate, err.Error())
	}
	today, _ := entities.ParseDate(entities.DateOf(time.Now()))
	if d.Before(today) {
		return apperrors.NewValidationError(apperrors.CodeInvalidDate,
			fmt.Sprintf("date %s is in the past", date))
	}
	return nil
}

func validateSlots(slots []entities.Slot) error {
	if len(slots) == 0 {
		return apperrors.NewValidationError(apperrors.CodeNoValidSlots, "at least one slot is required")
	}
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return apperrors.NewValidationError(apperrors.CodeInvalidTime, err.Error())
		}
	}
	return nil
}

// filterLeadTime drops same-day slots starting less than an hour from now
func filterLeadTime(date string, slots []entities.Slot, now time.Time) []entities.Slot {
	if date != entities.DateOf(now) {
		return slots
	}

	cutoff := now.Add(minSameDayLead)
	cutoffMinutes := cutoff.Hour()*60 + cutoff.Minute()
	if entities.DateOf(cutoff) != date {
		// The lead-time horizon crossed midnight; nothing today qualifies
		cutoffMinutes = 24 * 60
	}

	surviving := make([]entities.Slot, 0, len(slots))
	for _, slot := range slots {
		start, err := entities.ParseClock(slot.StartTime)
		if err != nil {
			continue
		}
		if start >= cutoffMinutes {
			surviving = append(surviving, slot)
		}
	}
	return surviving
}

// dedupeSlots drops slots whose start time duplicates the existing window's
// slots or an earlier slot in the batch
func dedupeSlots(slots []entities.Slot, window *entities.AvailabilityWindow) []entities.Slot {
	seen := make(map[string]struct{})
	if window != nil {
		for _, slot := range window.Slots {
			seen[slot.StartTime] = struct{}{}
		}
	}

	surviving := make([]entities.Slot, 0, len(slots))
	for _, slot := range slots {
		if _, dup := seen[slot.StartTime]; dup {
			continue
		}
		seen[slot.StartTime] = struct{}{}
		surviving = append(surviving, slot)
	}
	return surviving
}
