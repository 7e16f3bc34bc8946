package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/docsched/backend/internal/domain/entities"
)

// ScheduleService defines the interface for availability operations
type ScheduleService interface {
	AddWindow(ctx context.Context, providerID, date string, slots []entities.Slot, maxBookingsPerSlot int) (*entities.AvailabilityWindow, error)
	UpdateWindow(ctx context.Context, providerID, date string, slots []entities.Slot) (*entities.AvailabilityWindow, error)
	CancelWindow(ctx context.Context, providerID, date string) error
	GetAvailability(ctx context.Context, providerID, from, to string) ([]entities.WindowAvailability, error)
}

// ScheduleHandler handles availability HTTP requests
type ScheduleHandler struct {
	service ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(service ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
	}
}

type addWindowRequest struct {
	Date               string          `json:"date"`
	Slots              []entities.Slot `json:"slots"`
	MaxBookingsPerSlot int             `json:"max_bookings_per_slot"`
}

type updateWindowRequest struct {
	Slots []entities.Slot `json:"slots"`
}

// AddWindow handles POST /api/providers/{id}/availability
func (h *ScheduleHandler) AddWindow(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}
	if !requireSelf(w, r, providerID) {
		return
	}

	var req addWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	window, err := h.service.AddWindow(r.Context(), providerID, req.Date, req.Slots, req.MaxBookingsPerSlot)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, window)
}

// UpdateWindow handles PUT /api/providers/{id}/availability/{date}
func (h *ScheduleHandler) UpdateWindow(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	date := r.PathValue("date")
	if providerID == "" || date == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID and date are required")
		return
	}
	if !requireSelf(w, r, providerID) {
		return
	}

	var req updateWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	window, err := h.service.UpdateWindow(r.Context(), providerID, date, req.Slots)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, window)
}

// CancelWindow handles DELETE /api/providers/{id}/availability/{date}
func (h *ScheduleHandler) CancelWindow(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	date := r.PathValue("date")
	if providerID == "" || date == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID and date are required")
		return
	}
	if !requireSelf(w, r, providerID) {
		return
	}

	if err := h.service.CancelWindow(r.Context(), providerID, date); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "cancelled",
	})
}

// GetAvailability handles GET /api/providers/{id}/availability
func (h *ScheduleHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		respondWithError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	windows, err := h.service.GetAvailability(r.Context(), providerID, from, to)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"windows": windows,
		"count":   len(windows),
	})
}
