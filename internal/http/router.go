package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Availability *AvailabilityHandler
	Bookings     *BookingHandler
	// Health lists dependency probes for /healthz keyed by name.
	Health  map[string]HealthCheck
	Metrics http.Handler
	// Middleware wraps every route, first entry outermost.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	router.Handle("/healthz", healthHandler(cfg.Health)).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	if cfg.Availability != nil {
		router.HandleFunc("/organizers/{username}/availability", cfg.Availability.List).Methods(http.MethodGet)
	}

	if cfg.Bookings != nil {
		router.HandleFunc("/organizers/{username}/bookings", cfg.Bookings.Create).Methods(http.MethodPost)
		router.HandleFunc("/organizers/{username}/bookings", cfg.Bookings.List).Methods(http.MethodGet)
		router.HandleFunc("/bookings/{id}", cfg.Bookings.Get).Methods(http.MethodGet)
		router.HandleFunc("/bookings/{id}", cfg.Bookings.Cancel).Methods(http.MethodDelete)
		router.HandleFunc("/bookings/{id}/schedule", cfg.Bookings.Reschedule).Methods(http.MethodPut)
	}

	var handler http.Handler = router
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.Handler {
	resp := newResponder(nil)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		payload := healthResponse{Status: "ok"}
		if len(checks) > 0 {
			payload.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				resp.loggerFor(r.Context()).WarnContext(r.Context(), "health check failed", "check", name, "error", err)
				payload.Checks[name] = "unavailable"
				payload.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			payload.Checks[name] = "ok"
		}
		resp.writeJSON(r.Context(), w, status, payload)
	})
}
