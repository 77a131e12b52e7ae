/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers and roles.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zerolog access log (method, path, status, duration)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the CRM frontend
  5. Auth:       JWT bearer token on every /api route

ROUTE GROUPS:
  /api/settings/*        Settings (writes: admin)
  /api/commissions/*     Resolve, calculate, quote (recalculate: admin)
  /api/recalculations    Run history (admin, backoffice)
  /api/sales/*           Sales (manual assignment: admin, backoffice)
  /api/alerts/check      Alert sweep (admin, backoffice)
  /api/scenarios/*       Demo data (load: admin)
  /api/config/potencias  Power keys
  /metrics               Prometheus, unauthenticated

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token verification and roles
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterConfig carries the router settings that come from configuration.
type RouterConfig struct {
	AllowedOrigins []string
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, auth *Authenticator, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.ListSettings)
			r.Get("/{id}", h.GetSetting)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(RoleAdmin))
				r.Post("/", h.CreateSetting)
				r.Put("/{id}", h.UpdateSetting)
				r.Delete("/{id}", h.DeleteSetting)
			})
		})

		r.Route("/commissions", func(r chi.Router) {
			r.Post("/resolve", h.ResolveRule)
			r.Post("/calculate", h.CalculateCommission)
			r.Post("/quote", h.QuoteCommission)
			r.With(RequireRole(RoleAdmin)).Post("/recalculate", h.Recalculate)
		})

		r.With(RequireRole(RoleAdmin, RoleBackoffice)).Get("/recalculations", h.ListRecalculations)

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", h.CreateSale)
			r.With(RequireRole(RoleAdmin, RoleBackoffice)).Put("/{id}/commission", h.AssignCommission)
		})

		r.With(RequireRole(RoleAdmin, RoleBackoffice)).Post("/alerts/check", h.CheckAlerts)

		r.Get("/config/potencias", h.GetPotencias)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.With(RequireRole(RoleAdmin)).Post("/load", h.LoadScenario)
		})
	})

	return r
}

// requestLogger writes one access log line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				event := logger.Info()
				if status >= http.StatusInternalServerError {
					event = logger.Error()
				}
				event.
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("latency", time.Since(start)).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
