package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/docsched/backend/internal/api/middleware"
	"github.com/docsched/backend/internal/domain/entities"
)

// RatingService defines the interface for provider rating operations
type RatingService interface {
	Rate(ctx context.Context, requesterID, providerID string, score float64, comment string) (*entities.RatingSummary, error)
	ListForProvider(ctx context.Context, providerID string, limit, offset int) ([]*entities.RatingEntry, error)
}

// RatingHandler handles rating HTTP requests
type RatingHandler struct {
	service RatingService
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(service RatingService) *RatingHandler {
	return &RatingHandler{
		service: service,
	}
}

type rateRequest struct {
	RequesterID string  `json:"requester_id"`
	Score       float64 `json:"score"`
	Comment     string  `json:"comment"`
}

// RateProvider handles POST /api/providers/{id}/ratings
func (h *RatingHandler) RateProvider(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if principal, ok := middleware.PrincipalFromContext(r.Context()); ok && principal.Role == middleware.RoleRequester {
		req.RequesterID = principal.ID
	}
	if req.RequesterID == "" {
		respondWithError(w, http.StatusBadRequest, "requester_id is required")
		return
	}

	summary, err := h.service.Rate(r.Context(), req.RequesterID, providerID, req.Score, req.Comment)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// ListRatings handles GET /api/providers/{id}/ratings
func (h *RatingHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	limit := 30
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 && value <= 100 {
			limit = value
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			offset = value
		}
	}

	entries, err := h.service.ListForProvider(r.Context(), providerID, limit, offset)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ratings": entries,
		"count":   len(entries),
	})
}
