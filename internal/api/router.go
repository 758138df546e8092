/**
 * @description
 * HTTP routers for the public resolution API and the private admin API using go-chi/chi.
 */
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PublicRouterConfig carries the settings of the public router.
type PublicRouterConfig struct {
	PayIDVersion             string
	Limiter                  LookupRateLimiter
	LookupRateLimitPerMinute int
	Logger                   *slog.Logger
}

// NewPublicRouter serves PayID lookups at /{user}. Every path is handed to the
// resolver so that malformed PayID paths are reported as such.
func NewPublicRouter(h *Handler, cfg PublicRouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "PayID-Version"},
		ExposedHeaders: []string{"Content-Type", payIDServerVersionHeader},
		MaxAge:         300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(PayIDVersionMiddleware(cfg.PayIDVersion))
		r.Use(RateLimitMiddleware(cfg.Limiter, cfg.LookupRateLimitPerMinute, cfg.Logger))
		r.Get("/*", h.handleResolve)
	})

	return r
}

// NewAdminRouter serves health and metrics on the private port.
func NewAdminRouter(pinger Pinger, registry *prometheus.Registry, internalKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", handleHealth(pinger))

	if registry != nil {
		r.With(InternalAuthMiddleware(internalKey)).Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not Found")
	})

	return r
}
