package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsched/backend/internal/api/handlers"
	"github.com/docsched/backend/internal/api/middleware"
	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
	"github.com/docsched/backend/internal/infrastructure/observability"
	apperrors "github.com/docsched/backend/pkg/errors"
)

type stubBookingService struct {
	bookErr     error
	cancelErr   error
	booked      []*entities.Reservation
	listOwnerID string
	listFilter  repositories.ReservationFilter
}

func (s *stubBookingService) Book(ctx context.Context, requesterID, providerID, date, clock string) (*entities.Reservation, error) {
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	reservation := &entities.Reservation{
		ID: "res-1", RequesterID: requesterID, ProviderID: providerID,
		Date: date, Time: clock, Status: entities.ReservationStatusConfirmed,
	}
	s.booked = append(s.booked, reservation)
	return reservation, nil
}

func (s *stubBookingService) Cancel(ctx context.Context, reservationID string) error {
	return s.cancelErr
}

func (s *stubBookingService) Reschedule(ctx context.Context, reservationID, date, clock string) (*entities.Reservation, error) {
	return &entities.Reservation{ID: reservationID, Date: date, Time: clock}, nil
}

func (s *stubBookingService) ListForRequester(ctx context.Context, requesterID string, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	s.listOwnerID = requesterID
	s.listFilter = filter
	return nil, nil
}

func (s *stubBookingService) ListForProvider(ctx context.Context, providerID string, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	return nil, nil
}

func TestBookingHandler_BookReservation(t *testing.T) {
	t.Run("returns the reservation with 201", func(t *testing.T) {
		service := &stubBookingService{}
		handler := handlers.NewBookingHandler(service, nil)

		body := `{"requester_id":"req-1","provider_id":"prov-1","date":"2026-09-15","time":"09:30"}`
		req := httptest.NewRequest("POST", "/api/reservations", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.BookReservation(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Len(t, service.booked, 1)

		var response entities.Reservation
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "res-1", response.ID)
		assert.Equal(t, entities.ReservationStatusConfirmed, response.Status)
	})

	t.Run("slot-full rejections map to 400 with the error code", func(t *testing.T) {
		service := &stubBookingService{
			bookErr: apperrors.NewCapacityError(apperrors.CodeSlotFull, "slot 09:00-10:00 on 2026-09-15 is fully booked"),
		}
		// Real instruments; no-op under the default meter provider
		metrics, err := observability.InitMetrics()
		require.NoError(t, err)
		handler := handlers.NewBookingHandler(service, metrics)

		body := `{"requester_id":"req-1","provider_id":"prov-1","date":"2026-09-15","time":"09:30"}`
		req := httptest.NewRequest("POST", "/api/reservations", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.BookReservation(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]string
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "SlotFull", response["code"])
	})

	t.Run("exhausted transient retries map to 503", func(t *testing.T) {
		service := &stubBookingService{
			bookErr: apperrors.NewTransientError("serialization failure", nil),
		}
		handler := handlers.NewBookingHandler(service, nil)

		body := `{"requester_id":"req-1","provider_id":"prov-1","date":"2026-09-15","time":"09:30"}`
		req := httptest.NewRequest("POST", "/api/reservations", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.BookReservation(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("missing identifiers are rejected before the service", func(t *testing.T) {
		service := &stubBookingService{}
		handler := handlers.NewBookingHandler(service, nil)

		body := `{"date":"2026-09-15","time":"09:30"}`
		req := httptest.NewRequest("POST", "/api/reservations", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.BookReservation(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, service.booked)
	})
}

func TestBookingHandler_ListReservations(t *testing.T) {
	t.Run("requires an authenticated principal", func(t *testing.T) {
		handler := handlers.NewBookingHandler(&stubBookingService{}, nil)

		req := httptest.NewRequest("GET", "/api/reservations", nil)
		w := httptest.NewRecorder()

		handler.ListReservations(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("scopes to the requester and carries the status filter", func(t *testing.T) {
		service := &stubBookingService{}
		handler := handlers.NewBookingHandler(service, nil)

		req := httptest.NewRequest("GET", "/api/reservations?status=cancelled&limit=10", nil)
		req = withPrincipal(req, "req-1", middleware.RoleRequester)
		w := httptest.NewRecorder()

		handler.ListReservations(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "req-1", service.listOwnerID)
		assert.Equal(t, entities.ReservationStatusCancelled, service.listFilter.Status)
		assert.Equal(t, 10, service.listFilter.Limit)
	})
}

func TestBookingHandler_CancelReservation(t *testing.T) {
	t.Run("cancels and reports status", func(t *testing.T) {
		handler := handlers.NewBookingHandler(&stubBookingService{}, nil)

		req := httptest.NewRequest("DELETE", "/api/reservations/res-1", nil)
		req.SetPathValue("id", "res-1")
		w := httptest.NewRecorder()

		handler.CancelReservation(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("second cancel maps to 404", func(t *testing.T) {
		handler := handlers.NewBookingHandler(&stubBookingService{
			cancelErr: apperrors.NewNotFoundError("reservation with id res-1 not found"),
		}, nil)

		req := httptest.NewRequest("DELETE", "/api/reservations/res-1", nil)
		req.SetPathValue("id", "res-1")
		w := httptest.NewRecorder()

		handler.CancelReservation(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
