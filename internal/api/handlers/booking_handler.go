package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/docsched/backend/internal/api/middleware"
	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
	"github.com/docsched/backend/internal/infrastructure/observability"
	apperrors "github.com/docsched/backend/pkg/errors"
)

// BookingService defines the interface for reservation operations
type BookingService interface {
	Book(ctx context.Context, requesterID, providerID, date, clock string) (*entities.Reservation, error)
	Cancel(ctx context.Context, reservationID string) error
	Reschedule(ctx context.Context, reservationID, date, clock string) (*entities.Reservation, error)
	ListForRequester(ctx context.Context, requesterID string, filter repositories.ReservationFilter) ([]*entities.Reservation, error)
	ListForProvider(ctx context.Context, providerID string, filter repositories.ReservationFilter) ([]*entities.Reservation, error)
}

// BookingHandler handles reservation HTTP requests
type BookingHandler struct {
	service BookingService
	metrics *observability.Metrics
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingService, metrics *observability.Metrics) *BookingHandler {
	return &BookingHandler{
		service: service,
		metrics: metrics,
	}
}

type bookRequest struct {
	RequesterID string `json:"requester_id"`
	ProviderID  string `json:"provider_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// BookReservation handles POST /api/reservations
func (h *BookingHandler) BookReservation(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	// An authenticated requester always books for themselves
	if principal, ok := middleware.PrincipalFromContext(r.Context()); ok && principal.Role == middleware.RoleRequester {
		req.RequesterID = principal.ID
	}

	if req.RequesterID == "" || req.ProviderID == "" {
		respondWithError(w, http.StatusBadRequest, "requester_id and provider_id are required")
		return
	}

	reservation, err := h.service.Book(r.Context(), req.RequesterID, req.ProviderID, req.Date, req.Time)
	if err != nil {
		outcome := "rejected"
		if apperrors.CodeOf(err) == apperrors.CodeSlotFull {
			outcome = "slot_full"
		}
		observability.RecordBookingMetric(r.Context(), h.metrics, outcome)
		respondWithAppError(w, err)
		return
	}

	observability.RecordBookingMetric(r.Context(), h.metrics, "confirmed")
	respondWithJSON(w, http.StatusCreated, reservation)
}

// CancelReservation handles DELETE /api/reservations/{id}
func (h *BookingHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	reservationID := r.PathValue("id")
	if reservationID == "" {
		respondWithError(w, http.StatusBadRequest, "reservation ID is required")
		return
	}

	if err := h.service.Cancel(r.Context(), reservationID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "cancelled",
	})
}

// RescheduleReservation handles PATCH /api/reservations/{id}
func (h *BookingHandler) RescheduleReservation(w http.ResponseWriter, r *http.Request) {
	reservationID := r.PathValue("id")
	if reservationID == "" {
		respondWithError(w, http.StatusBadRequest, "reservation ID is required")
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	reservation, err := h.service.Reschedule(r.Context(), reservationID, req.Date, req.Time)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, reservation)
}

// ListReservations handles GET /api/reservations, scoped to the principal
func (h *BookingHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filter := repositories.ReservationFilter{
		Status:   entities.ReservationStatus(r.URL.Query().Get("status")),
		FromDate: r.URL.Query().Get("from"),
		ToDate:   r.URL.Query().Get("to"),
		Limit:    30,
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if value, err := strconv.Atoi(limit); err == nil && value > 0 && value <= 100 {
			filter.Limit = value
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if value, err := strconv.Atoi(offset); err == nil && value > 0 {
			filter.Offset = value
		}
	}

	var reservations []*entities.Reservation
	var err error
	switch principal.Role {
	case middleware.RoleProvider:
		reservations, err = h.service.ListForProvider(r.Context(), principal.ID, filter)
	default:
		reservations, err = h.service.ListForRequester(r.Context(), principal.ID, filter)
	}
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"count":        len(reservations),
	})
}
