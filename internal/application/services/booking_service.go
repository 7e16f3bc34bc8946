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
	"github.com/docsched/backend/internal/infrastructure/observability"
	apperrors "github.com/docsched/backend/pkg/errors"
	"github.com/docsched/backend/pkg/retry"
)

// BookingService orchestrates the booking transaction: validation, slot
// matching, and the atomic capacity-checked insert
type BookingService struct {
	reservationRepo repositories.ReservationRepository
	scheduleRepo    repositories.ScheduleRepository
	providerRepo    repositories.ProviderRepository
	requesterRepo   repositories.RequesterRepository
	eventBus        providers.EventBus
}

// NewBookingService creates a new booking service
func NewBookingService(
	reservationRepo repositories.ReservationRepository,
	scheduleRepo repositories.ScheduleRepository,
	providerRepo repositories.ProviderRepository,
	requesterRepo repositories.RequesterRepository,
	eventBus providers.EventBus,
) *BookingService {
	return &BookingService{
		reservationRepo: reservationRepo,
		scheduleRepo:    scheduleRepo,
		providerRepo:    providerRepo,
		requesterRepo:   requesterRepo,
		eventBus:        eventBus,
	}
}

// Book reserves one unit of slot capacity for the requester. Transient
// failures (the booking transaction losing a serialization race) retry the
// whole attempt, re-matching against current availability each time;
// capacity failures are surfaced to the caller, who must re-query
// availability rather than blindly retry.
func (s *BookingService) Book(ctx context.Context, requesterID, providerID, date, clock string) (*entities.Reservation, error) {
	if err := validateBookingTime(date, clock, time.Now()); err != nil {
		return nil, err
	}

	if _, err := s.requesterRepo.GetByID(ctx, requesterID); err != nil {
		return nil, err
	}
	if _, err := s.providerRepo.GetByID(ctx, providerID); err != nil {
		return nil, err
	}

	var reservation *entities.Reservation
	err := retry.DoIf(ctx, retry.ShortConfig(), apperrors.IsTransient, func() error {
		slot, maxPerSlot, err := s.matchSlot(ctx, providerID, date, clock)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		candidate := &entities.Reservation{
			ID:          uuid.New().String(),
			ProviderID:  providerID,
			RequesterID: requesterID,
			Date:        date,
			Time:        clock,
			Status:      entities.ReservationStatusConfirmed,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.reservationRepo.CreateWithinCapacity(ctx, candidate, *slot, maxPerSlot); err != nil {
			return err
		}
		reservation = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("reservation_id", reservation.ID).
		Str("provider_id", providerID).
		Str("date", date).
		Str("time", clock).
		Msg("Reservation confirmed")

	s.publishEvent(ctx, entities.EventReservationConfirmed, reservation)
	return reservation, nil
}

// Cancel releases a reservation. Capacity restoration is implicit because
// capacity is derived by counting live reservations; a second cancel fails
// with NotFound and never perturbs the count.
func (s *BookingService) Cancel(ctx context.Context, reservationID string) error {
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}

	if err := s.reservationRepo.Cancel(ctx, reservationID); err != nil {
		return err
	}

	s.publishEvent(ctx, entities.EventReservationCancelled, reservation)
	return nil
}

// Reschedule moves a live reservation to a new date and time under the same
// validation and atomic capacity check as Book
func (s *BookingService) Reschedule(ctx context.Context, reservationID, date, clock string) (*entities.Reservation, error) {
	if err := validateBookingTime(date, clock, time.Now()); err != nil {
		return nil, err
	}

	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !reservation.Live() {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("reservation with id %s not found", reservationID))
	}

	err = retry.DoIf(ctx, retry.ShortConfig(), apperrors.IsTransient, func() error {
		slot, maxPerSlot, err := s.matchSlot(ctx, reservation.ProviderID, date, clock)
		if err != nil {
			return err
		}
		return s.reservationRepo.Reschedule(ctx, reservationID, date, clock, *slot, maxPerSlot)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, entities.EventReservationConfirmed, updated)
	return updated, nil
}

// ListForRequester retrieves a requester's reservations
func (s *BookingService) ListForRequester(ctx context.Context, requesterID string, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	return s.reservationRepo.ListByRequester(ctx, requesterID, filter)
}

// ListForProvider retrieves a provider's reservations
func (s *BookingService) ListForProvider(ctx context.Context, providerID string, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	return s.reservationRepo.ListByProvider(ctx, providerID, filter)
}

// matchSlot resolves the slot containing the requested time. No window for
// the date means NoAvailability; a window with no containing slot means
// NoMatchingSlot.
func (s *BookingService) matchSlot(ctx context.Context, providerID, date, clock string) (*entities.Slot, int, error) {
	window, err := s.scheduleRepo.GetWindow(ctx, providerID, date)
	if err != nil {
		if apperrors.TypeOf(err) == apperrors.ErrorTypeNotFound {
			return nil, 0, apperrors.NewCapacityError(apperrors.CodeNoAvailability,
				fmt.Sprintf("provider %s has no availability on %s", providerID, date))
		}
		return nil, 0, err
	}

	slot := window.FindSlot(clock)
	if slot == nil {
		return nil, 0, apperrors.NewCapacityError(apperrors.CodeNoMatchingSlot,
			fmt.Sprintf("no slot contains %s on %s", clock, date))
	}
	return slot, window.MaxBookingsPerSlot, nil
}

func (s *BookingService) publishEvent(ctx context.Context, eventType entities.ReservationEventType, reservation *entities.Reservation) {
	if s.eventBus == nil {
		return
	}
	event := &entities.ReservationEvent{
		ID:            uuid.New().String(),
		Type:          eventType,
		ReservationID: reservation.ID,
		ProviderID:    reservation.ProviderID,
		RequesterID:   reservation.RequesterID,
		Date:          reservation.Date,
		Time:          reservation.Time,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, "reservations.events", event); err != nil {
		log.Warn().Err(err).Str("reservation_id", reservation.ID).Msg("failed to publish reservation event")
	}
}

// validateBookingTime rejects malformed or past dates, malformed times, and
// same-day times less than an hour ahead
func validateBookingTime(date, clock string, now time.Time) error {
	d, err := entities.ParseDate(date)
	if err != nil {
		return apperrors.NewValidationError(apperrors.CodeInvalidDate, err.Error())
	}
	today, _ := entities.ParseDate(entities.DateOf(now))
	if d.Before(today) {
		return apperrors.NewValidationError(apperrors.CodeInvalidDate,
			fmt.Sprintf("date %s is in the past", date))
	}

	requested, err := entities.ParseClock(clock)
	if err != nil {
		return apperrors.NewValidationError(apperrors.CodeInvalidTime, err.Error())
	}

	if date == entities.DateOf(now) {
		cutoff := now.Add(minSameDayLead)
		cutoffMinutes := cutoff.Hour()*60 + cutoff.Minute()
		if entities.DateOf(cutoff) != date {
			cutoffMinutes = 24 * 60
		}
		if requested < cutoffMinutes {
			return apperrors.NewValidationError(apperrors.CodeInvalidTime,
				fmt.Sprintf("time %s is less than an hour from now", clock))
		}
	}
	return nil
}
