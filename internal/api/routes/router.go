package routes

import (
	"net/http"

	"github.com/docsched/backend/internal/api/handlers"
	"github.com/docsched/backend/internal/api/middleware"
	"github.com/docsched/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	providerHandler  *handlers.ProviderHandler
	requesterHandler *handlers.RequesterHandler
	scheduleHandler  *handlers.ScheduleHandler
	bookingHandler   *handlers.BookingHandler
	ratingHandler    *handlers.RatingHandler

	auth    func(http.Handler) http.Handler
	metrics *observability.Metrics
}

// NewRouter creates a new router. An empty jwtSecret disables authentication;
// principal-scoped routes then reject requests themselves.
func NewRouter(
	providerHandler *handlers.ProviderHandler,
	requesterHandler *handlers.RequesterHandler,
	scheduleHandler *handlers.ScheduleHandler,
	bookingHandler *handlers.BookingHandler,
	ratingHandler *handlers.RatingHandler,
	jwtSecret string,
	metrics *observability.Metrics,
) *Router {
	var auth func(http.Handler) http.Handler
	if jwtSecret != "" {
		auth = middleware.AuthMiddleware(jwtSecret)
	}

	return &Router{
		mux:              http.NewServeMux(),
		providerHandler:  providerHandler,
		requesterHandler: requesterHandler,
		scheduleHandler:  scheduleHandler,
		bookingHandler:   bookingHandler,
		ratingHandler:    ratingHandler,
		auth:             auth,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Provider endpoints
	r.mux.HandleFunc("POST /api/providers", r.providerHandler.RegisterProvider)
	r.mux.HandleFunc("GET /api/providers", r.providerHandler.ListProviders)
	r.mux.HandleFunc("GET /api/providers/{id}", r.providerHandler.GetProvider)
	r.handle("PATCH /api/providers/{id}", middleware.RoleProvider, r.providerHandler.UpdateProvider)

	// Availability endpoints
	r.mux.HandleFunc("GET /api/providers/{id}/availability", r.scheduleHandler.GetAvailability)
	r.handle("POST /api/providers/{id}/availability", middleware.RoleProvider, r.scheduleHandler.AddWindow)
	r.handle("PUT /api/providers/{id}/availability/{date}", middleware.RoleProvider, r.scheduleHandler.UpdateWindow)
	r.handle("DELETE /api/providers/{id}/availability/{date}", middleware.RoleProvider, r.scheduleHandler.CancelWindow)

	// Rating endpoints
	r.handle("POST /api/providers/{id}/ratings", middleware.RoleRequester, r.ratingHandler.RateProvider)
	r.mux.HandleFunc("GET /api/providers/{id}/ratings", r.ratingHandler.ListRatings)

	// Requester endpoints
	r.mux.HandleFunc("POST /api/requesters", r.requesterHandler.RegisterRequester)
	r.mux.HandleFunc("GET /api/requesters/{id}", r.requesterHandler.GetRequester)
	r.handle("PATCH /api/requesters/{id}", middleware.RoleRequester, r.requesterHandler.UpdateRequester)

	// Reservation endpoints
	r.handle("POST /api/reservations", middleware.RoleRequester, r.bookingHandler.BookReservation)
	r.handle("DELETE /api/reservations/{id}", "", r.bookingHandler.CancelReservation)
	r.handle("PATCH /api/reservations/{id}", "", r.bookingHandler.RescheduleReservation)
	r.handle("GET /api/reservations", "", r.bookingHandler.ListReservations)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so preflights never hit auth
	handler = middleware.CORSMiddleware(handler)

	return handler
}

// handle registers an authenticated route. role may be empty to accept any
// authenticated principal. With auth disabled the handler is mounted bare.
func (r *Router) handle(pattern, role string, handlerFunc http.HandlerFunc) {
	if r.auth == nil {
		r.mux.HandleFunc(pattern, handlerFunc)
		return
	}

	var handler http.Handler = handlerFunc
	if role != "" {
		handler = middleware.RequireRole(role)(handler)
	}
	r.mux.Handle(pattern, r.auth(handler))
}
