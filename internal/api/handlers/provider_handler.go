package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/docsched/backend/internal/api/middleware"
	"github.com/docsched/backend/internal/application/services"
	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/repositories"
	apperrors "github.com/docsched/backend/pkg/errors"
)

// ProviderHandler handles provider-related HTTP requests
type ProviderHandler struct {
	service *services.ProviderService
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(service *services.ProviderService) *ProviderHandler {
	return &ProviderHandler{
		service: service,
	}
}

// RegisterProvider handles POST /api/providers
func (h *ProviderHandler) RegisterProvider(w http.ResponseWriter, r *http.Request) {
	var provider entities.Provider
	if err := json.NewDecoder(r.Body).Decode(&provider); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.service.Register(r.Context(), &provider); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, provider)
}

// GetProvider handles GET /api/providers/{id}
func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	provider, err := h.service.Get(r.Context(), providerID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, provider)
}

// UpdateProvider handles PATCH /api/providers/{id}
func (h *ProviderHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	if !requireSelf(w, r, providerID) {
		return
	}

	var provider entities.Provider
	if err := json.NewDecoder(r.Body).Decode(&provider); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	provider.ID = providerID

	if err := h.service.UpdateDetails(r.Context(), &provider); err != nil {
		respondWithAppError(w, err)
		return
	}

	updated, err := h.service.Get(r.Context(), providerID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// ListProviders handles GET /api/providers
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ProviderFilter{
		Specialization: r.URL.Query().Get("specialization"),
	}

	if minRating := r.URL.Query().Get("min_rating"); minRating != "" {
		value, err := strconv.ParseFloat(minRating, 64)
		if err != nil || value < 0 || value > 5 {
			respondWithError(w, http.StatusBadRequest, "min_rating must be a number between 0 and 5")
			return
		}
		filter.MinRating = value
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if value, err := strconv.Atoi(limit); err == nil {
			filter.Limit = value
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if value, err := strconv.Atoi(offset); err == nil && value > 0 {
			filter.Offset = value
		}
	}

	providers, err := h.service.Search(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
		"count":     len(providers),
	})
}

// Helper functions

// requireSelf rejects a principal acting on another account's resources.
// With auth disabled no principal is present and the check is skipped.
func requireSelf(w http.ResponseWriter, r *http.Request, id string) bool {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if ok && principal.ID != id {
		respondWithError(w, http.StatusForbidden, "cannot act on another account's resources")
		return false
	}
	return true
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an application error to an HTTP response. Capacity
// rejections are client errors: the schedule state changed and the caller
// must re-query availability, so the error code travels in the body.
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	statusCode := http.StatusInternalServerError
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		statusCode = http.StatusNotFound
	case apperrors.ErrorTypeValidation, apperrors.ErrorTypeCapacity, apperrors.ErrorTypeConflict:
		statusCode = http.StatusBadRequest
	case apperrors.ErrorTypeUnauthorized:
		statusCode = http.StatusUnauthorized
	case apperrors.ErrorTypeTransient:
		statusCode = http.StatusServiceUnavailable
	case apperrors.ErrorTypeExternal:
		statusCode = http.StatusBadGateway
	}

	payload := map[string]string{"error": appErr.Message}
	if appErr.Code != "" {
		payload["code"] = appErr.Code
	}
	respondWithJSON(w, statusCode, payload)
}
