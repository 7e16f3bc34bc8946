package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
)

// Mocks shared by the service tests

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) CreateWithinCapacity(ctx context.Context, reservation *entities.Reservation, slot entities.Slot, maxBookingsPerSlot int) error {
	args := m.Called(ctx, reservation, slot, maxBookingsPerSlot)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*entities.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Reservation), args.Error(1)
}

func (m *MockReservationRepository) Cancel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReservationRepository) Reschedule(ctx context.Context, id, date, clock string, slot entities.Slot, maxBookingsPerSlot int) error {
	args := m.Called(ctx, id, date, clock, slot, maxBookingsPerSlot)
	return args.Error(0)
}

func (m *MockReservationRepository) CountLive(ctx context.Context, providerID, date string, slot entities.Slot) (int, error) {
	args := m.Called(ctx, providerID, date, slot)
	return args.Int(0), args.Error(1)
}

func (m *MockReservationRepository) ListByRequester(ctx context.Context, requesterID string, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	args := m.Called(ctx, requesterID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListByProvider(ctx context.Context, providerID string, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	args := m.Called(ctx, providerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Reservation), args.Error(1)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) GetWindow(ctx context.Context, providerID, date string) (*entities.AvailabilityWindow, error) {
	args := m.Called(ctx, providerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AvailabilityWindow), args.Error(1)
}

func (m *MockScheduleRepository) ListWindows(ctx context.Context, providerID, from, to string) ([]*entities.AvailabilityWindow, error) {
	args := m.Called(ctx, providerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AvailabilityWindow), args.Error(1)
}

func (m *MockScheduleRepository) CreateWindow(ctx context.Context, window *entities.AvailabilityWindow) error {
	args := m.Called(ctx, window)
	return args.Error(0)
}

func (m *MockScheduleRepository) AppendSlots(ctx context.Context, windowID string, slots []entities.Slot, maxBookingsPerSlot int) error {
	args := m.Called(ctx, windowID, slots, maxBookingsPerSlot)
	return args.Error(0)
}

func (m *MockScheduleRepository) ReplaceSlots(ctx context.Context, windowID string, slots []entities.Slot) error {
	args := m.Called(ctx, windowID, slots)
	return args.Error(0)
}

func (m *MockScheduleRepository) DeleteWindow(ctx context.Context, providerID, date string) ([]*entities.Reservation, error) {
	args := m.Called(ctx, providerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Reservation), args.Error(1)
}

type MockProviderRepository struct {
	mock.Mock
}

func (m *MockProviderRepository) Create(ctx context.Context, provider *entities.Provider) error {
	args := m.Called(ctx, provider)
	return args.Error(0)
}

func (m *MockProviderRepository) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Provider), args.Error(1)
}

func (m *MockProviderRepository) Update(ctx context.Context, provider *entities.Provider) error {
	args := m.Called(ctx, provider)
	return args.Error(0)
}

func (m *MockProviderRepository) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Provider), args.Error(1)
}

type MockRequesterRepository struct {
	mock.Mock
}

func (m *MockRequesterRepository) Create(ctx context.Context, requester *entities.Requester) error {
	args := m.Called(ctx, requester)
	return args.Error(0)
}

func (m *MockRequesterRepository) GetByID(ctx context.Context, id string) (*entities.Requester, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Requester), args.Error(1)
}

func (m *MockRequesterRepository) Update(ctx context.Context, requester *entities.Requester) error {
	args := m.Called(ctx, requester)
	return args.Error(0)
}

type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) Apply(ctx context.Context, entry *entities.RatingEntry) (*entities.RatingSummary, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RatingSummary), args.Error(1)
}

func (m *MockRatingRepository) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*entities.RatingEntry, error) {
	args := m.Called(ctx, providerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RatingEntry), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ReservationEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReservationEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.ReservationEvent), args.Error(1)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}
