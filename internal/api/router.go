package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the transport settings of the daemon.
type RouterConfig struct {
	CORSOrigins     []string
	RateLimit       int
	RateLimitWindow time.Duration
	MaxRequestSize  int64
}

// DefaultRouterConfig mirrors the daemon defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSOrigins:     []string{"*"},
		RateLimit:       600,
		RateLimitWindow: time.Minute,
		MaxRequestSize:  64 << 10,
	}
}

// NewRouter wires the code-time API, health and metrics endpoints.
func NewRouter(engine Engine, cfg RouterConfig) http.Handler {
	h := NewHandler(engine)
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(PrometheusMetrics)

	r.Get("/api/v1/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/code-time", func(r chi.Router) {
		r.Get("/activities", h.Activities)
		r.Get("/statistics", h.Statistics)
		r.Get("/last-x-days", h.LastXDays)
		r.Get("/top-projects", h.TopProjects)
		r.Get("/top-languages", h.TopLanguages)
		r.Get("/each-day", h.EachDay)
		r.Get("/time-distribution", h.TimeDistribution)
		r.Get("/user/minutes", h.UserMinutes)

		r.Group(func(r chi.Router) {
			if cfg.RateLimit > 0 && cfg.RateLimitWindow > 0 {
				r.Use(httprate.Limit(cfg.RateLimit, cfg.RateLimitWindow,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						respondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many heartbeats", nil)
					}),
				))
			}
			if cfg.MaxRequestSize > 0 {
				r.Use(limitBody(cfg.MaxRequestSize))
			}
			r.Post("/eventLog", h.EventLog)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Route not found", nil)
	})

	return r
}
