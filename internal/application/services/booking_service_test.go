package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/docsched/backend/internal/application/services"
	"github.com/docsched/backend/internal/domain/entities"
	apperrors "github.com/docsched/backend/pkg/errors"
)

func newBookingFixture() (*MockReservationRepository, *MockScheduleRepository, *MockProviderRepository, *MockRequesterRepository, *MockEventBus, *services.BookingService) {
	reservations := new(MockReservationRepository)
	schedules := new(MockScheduleRepository)
	providerRepo := new(MockProviderRepository)
	requesters := new(MockRequesterRepository)
	bus := new(MockEventBus)
	service := services.NewBookingService(reservations, schedules, providerRepo, requesters, bus)
	return reservations, schedules, providerRepo, requesters, bus, service
}

func tomorrowDate() string {
	return entities.DateOf(time.Now().AddDate(0, 0, 1))
}

func windowFor(providerID, date string, maxPerSlot int, slots ...entities.Slot) *entities.AvailabilityWindow {
	return &entities.AvailabilityWindow{
		ID:                 "win-1",
		ProviderID:         providerID,
		Date:               date,
		MaxBookingsPerSlot: maxPerSlot,
		Slots:              slots,
	}
}

func TestBookingService_Book(t *testing.T) {
	morning := entities.Slot{ID: "slot-1", StartTime: "09:00", EndTime: "10:00"}

	t.Run("books into the slot containing the requested time", func(t *testing.T) {
		reservations, schedules, providerRepo, requesters, bus, service := newBookingFixture()
		date := tomorrowDate()

		requesters.On("GetByID", mock.Anything, "req-1").Return(&entities.Requester{ID: "req-1"}, nil)
		providerRepo.On("GetByID", mock.Anything, "prov-1").Return(&entities.Provider{ID: "prov-1"}, nil)
		schedules.On("GetWindow", mock.Anything, "prov-1", date).
			Return(windowFor("prov-1", date, 5, morning), nil)
		reservations.On("CreateWithinCapacity", mock.Anything, mock.MatchedBy(func(r *entities.Reservation) bool {
			return r.ProviderID == "prov-1" && r.RequesterID == "req-1" &&
				r.Time == "09:30" && r.Status == entities.ReservationStatusConfirmed
		}), morning, 5).Return(nil)
		bus.On("Publish", mock.Anything, "reservations.events", mock.MatchedBy(func(e *entities.ReservationEvent) bool {
			return e.Type == entities.EventReservationConfirmed
		})).Return(nil)

		reservation, err := service.Book(context.Background(), "req-1", "prov-1", date, "09:30")

		assert.NoError(t, err)
		assert.NotEmpty(t, reservation.ID)
		assert.Equal(t, "09:30", reservation.Time)
		reservations.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("a time equal to slot end does not match", func(t *testing.T) {
		_, schedules, providerRepo, requesters, _, service := newBookingFixture()
		date := tomorrowDate()

		requesters.On("GetByID", mock.Anything, "req-1").Return(&entities.Requester{ID: "req-1"}, nil)
		providerRepo.On("GetByID", mock.Anything, "prov-1").Return(&entities.Provider{ID: "prov-1"}, nil)
		schedules.On("GetWindow", mock.Anything, "prov-1", date).
			Return(windowFor("prov-1", date, 5, morning), nil)

		_, err := service.Book(context.Background(), "req-1", "prov-1", date, "10:00")

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeCapacity, apperrors.TypeOf(err))
		assert.Equal(t, apperrors.CodeNoMatchingSlot, apperrors.CodeOf(err))
	})

	t.Run("no window for the date fails with NoAvailability", func(t *testing.T) {
		_, schedules, providerRepo, requesters, _, service := newBookingFixture()
		date := tomorrowDate()

		requesters.On("GetByID", mock.Anything, "req-1").Return(&entities.Requester{ID: "req-1"}, nil)
		providerRepo.On("GetByID", mock.Anything, "prov-1").Return(&entities.Provider{ID: "prov-1"}, nil)
		schedules.On("GetWindow", mock.Anything, "prov-1", date).
			Return(nil, apperrors.NewNotFoundError("window not found"))

		_, err := service.Book(context.Background(), "req-1", "prov-1", date, "09:30")

		assert.Error(t, err)
		assert.Equal(t, apperrors.CodeNoAvailability, apperrors.CodeOf(err))
	})

	t.Run("slot-full rejection surfaces without publishing", func(t *testing.T) {
		reservations, schedules, providerRepo, requesters, bus, service := newBookingFixture()
		date := tomorrowDate()

		requesters.On("GetByID", mock.Anything, "req-1").Return(&entities.Requester{ID: "req-1"}, nil)
		providerRepo.On("GetByID", mock.Anything, "prov-1").Return(&entities.Provider{ID: "prov-1"}, nil)
		schedules.On("GetWindow", mock.Anything, "prov-1", date).
			Return(windowFor("prov-1", date, 1, morning), nil)
		reservations.On("CreateWithinCapacity", mock.Anything, mock.Anything, morning, 1).
			Return(apperrors.NewCapacityError(apperrors.CodeSlotFull, "slot 09:00 is fully booked"))

		_, err := service.Book(context.Background(), "req-1", "prov-1", date, "09:00")

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeCapacity, apperrors.TypeOf(err))
		assert.Equal(t, apperrors.CodeSlotFull, apperrors.CodeOf(err))
		bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retries the whole attempt after a serialization loss", func(t *testing.T) {
		reservations, schedules, providerRepo, requesters, bus, service := newBookingFixture()
		date := tomorrowDate()

		requesters.On("GetByID", mock.Anything, "req-1").Return(&entities.Requester{ID: "req-1"}, nil)
		providerRepo.On("GetByID", mock.Anything, "prov-1").Return(&entities.Provider{ID: "prov-1"}, nil)
		schedules.On("GetWindow", mock.Anything, "prov-1", date).
			Return(windowFor("prov-1", date, 5, morning), nil)
		reservations.On("CreateWithinCapacity", mock.Anything, mock.Anything, morning, 5).
			Return(apperrors.NewTransientError("serialization failure", nil)).Once()
		reservations.On("CreateWithinCapacity", mock.Anything, mock.Anything, morning, 5).
			Return(nil).Once()
		bus.On("Publish", mock.Anything, "reservations.events", mock.Anything).Return(nil)

		reservation, err := service.Book(context.Background(), "req-1", "prov-1", date, "09:30")

		assert.NoError(t, err)
		assert.NotNil(t, reservation)
		reservations.AssertExpectations(t)
		schedules.AssertNumberOfCalls(t, "GetWindow", 2)
	})

	t.Run("rejects past dates", func(t *testing.T) {
		_, _, _, _, _, service := newBookingFixture()
		yesterday := entities.DateOf(time.Now().AddDate(0, 0, -1))

		_, err := service.Book(context.Background(), "req-1", "prov-1", yesterday, "09:00")

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
		assert.Equal(t, apperrors.CodeInvalidDate, apperrors.CodeOf(err))
	})

	t.Run("rejects malformed times", func(t *testing.T) {
		_, _, _, _, _, service := newBookingFixture()

		_, err := service.Book(context.Background(), "req-1", "prov-1", tomorrowDate(), "9am")

		assert.Error(t, err)
		assert.Equal(t, apperrors.CodeInvalidTime, apperrors.CodeOf(err))
	})

	t.Run("rejects same-day bookings under an hour ahead", func(t *testing.T) {
		_, _, _, _, _, service := newBookingFixture()
		now := time.Now()

		_, err := service.Book(context.Background(), "req-1", "prov-1",
			entities.DateOf(now), entities.ClockOf(now.Add(10*time.Minute)))

		assert.Error(t, err)
		assert.Equal(t, apperrors.CodeInvalidTime, apperrors.CodeOf(err))
	})
}

func TestBookingService_Cancel(t *testing.T) {
	t.Run("cancels and publishes", func(t *testing.T) {
		reservations, _, _, _, bus, service := newBookingFixture()
		reservation := &entities.Reservation{
			ID: "res-1", ProviderID: "prov-1", RequesterID: "req-1",
			Date: tomorrowDate(), Time: "09:00",
			Status: entities.ReservationStatusConfirmed,
		}

		reservations.On("GetByID", mock.Anything, "res-1").Return(reservation, nil)
		reservations.On("Cancel", mock.Anything, "res-1").Return(nil)
		bus.On("Publish", mock.Anything, "reservations.events", mock.MatchedBy(func(e *entities.ReservationEvent) bool {
			return e.Type == entities.EventReservationCancelled && e.ReservationID == "res-1"
		})).Return(nil)

		err := service.Cancel(context.Background(), "res-1")

		assert.NoError(t, err)
		reservations.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("second cancel fails with NotFound", func(t *testing.T) {
		reservations, _, _, _, bus, service := newBookingFixture()
		cancelled := &entities.Reservation{ID: "res-1", Status: entities.ReservationStatusCancelled}

		reservations.On("GetByID", mock.Anything, "res-1").Return(cancelled, nil)
		reservations.On("Cancel", mock.Anything, "res-1").
			Return(apperrors.NewNotFoundError("reservation with id res-1 not found"))

		err := service.Cancel(context.Background(), "res-1")

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
		bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBookingService_Reschedule(t *testing.T) {
	morning := entities.Slot{ID: "slot-1", StartTime: "09:00", EndTime: "10:00"}

	t.Run("moves a live reservation under the capacity check", func(t *testing.T) {
		reservations, schedules, _, _, bus, service := newBookingFixture()
		date := tomorrowDate()
		reservation := &entities.Reservation{
			ID: "res-1", ProviderID: "prov-1", RequesterID: "req-1",
			Date: date, Time: "14:00",
			Status: entities.ReservationStatusConfirmed,
		}
		moved := &entities.Reservation{
			ID: "res-1", ProviderID: "prov-1", RequesterID: "req-1",
			Date: date, Time: "09:30",
			Status: entities.ReservationStatusConfirmed,
		}

		reservations.On("GetByID", mock.Anything, "res-1").Return(reservation, nil).Once()
		schedules.On("GetWindow", mock.Anything, "prov-1", date).
			Return(windowFor("prov-1", date, 5, morning), nil)
		reservations.On("Reschedule", mock.Anything, "res-1", date, "09:30", morning, 5).Return(nil)
		reservations.On("GetByID", mock.Anything, "res-1").Return(moved, nil).Once()
		bus.On("Publish", mock.Anything, "reservations.events", mock.Anything).Return(nil)

		updated, err := service.Reschedule(context.Background(), "res-1", date, "09:30")

		assert.NoError(t, err)
		assert.Equal(t, "09:30", updated.Time)
		reservations.AssertExpectations(t)
	})

	t.Run("cancelled reservations cannot be rescheduled", func(t *testing.T) {
		reservations, _, _, _, _, service := newBookingFixture()
		cancelled := &entities.Reservation{ID: "res-1", Status: entities.ReservationStatusCancelled}

		reservations.On("GetByID", mock.Anything, "res-1").Return(cancelled, nil)

		_, err := service.Reschedule(context.Background(), "res-1", tomorrowDate(), "09:30")

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
	})
}
