package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/docsched/backend/internal/application/services"
	"github.com/docsched/backend/internal/domain/entities"
)

// RequesterHandler handles requester-related HTTP requests
type RequesterHandler struct {
	service *services.RequesterService
}

// NewRequesterHandler creates a new requester handler
func NewRequesterHandler(service *services.RequesterService) *RequesterHandler {
	return &RequesterHandler{
		service: service,
	}
}

// RegisterRequester handles POST /api/requesters
func (h *RequesterHandler) RegisterRequester(w http.ResponseWriter, r *http.Request) {
	var requester entities.Requester
	if err := json.NewDecoder(r.Body).Decode(&requester); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.service.Register(r.Context(), &requester); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, requester)
}

// GetRequester handles GET /api/requesters/{id}
func (h *RequesterHandler) GetRequester(w http.ResponseWriter, r *http.Request) {
	requesterID := r.PathValue("id")
	if requesterID == "" {
		respondWithError(w, http.StatusBadRequest, "requester ID is required")
		return
	}

	requester, err := h.service.Get(r.Context(), requesterID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, requester)
}

// UpdateRequester handles PATCH /api/requesters/{id}
func (h *RequesterHandler) UpdateRequester(w http.ResponseWriter, r *http.Request) {
	requesterID := r.PathValue("id")
	if requesterID == "" {
		respondWithError(w, http.StatusBadRequest, "requester ID is required")
		return
	}
	if !requireSelf(w, r, requesterID) {
		return
	}

	var requester entities.Requester
	if err := json.NewDecoder(r.Body).Decode(&requester); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	requester.ID = requesterID

	if err := h.service.UpdateDetails(r.Context(), &requester); err != nil {
		respondWithAppError(w, err)
		return
	}

	updated, err := h.service.Get(r.Context(), requesterID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
