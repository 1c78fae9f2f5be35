// Package handler provides the HTTP layer for the Motion Video API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vijaymanda323/motion-video/internal/metrics"
	"github.com/vijaymanda323/motion-video/internal/repository"
)

// Router assembles the HTTP API.
type Router struct {
	userHandler    *UserHandler
	videoHandler   *VideoHandler
	authMiddleware func(http.Handler) http.Handler
	requireAuth    func(http.Handler) http.Handler
	dbHealth       repository.DatabaseHealth
	metrics        *metrics.Metrics
	metricsEnabled bool
	logger         zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	UserHandler  *UserHandler
	VideoHandler *VideoHandler

	// AuthMiddleware enriches the context with the session identity when
	// a token is present; RequireAuth rejects requests without one.
	AuthMiddleware func(http.Handler) http.Handler
	RequireAuth    func(http.Handler) http.Handler

	DBHealth       repository.DatabaseHealth
	Metrics        *metrics.Metrics
	MetricsEnabled bool
	Logger         zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		userHandler:    config.UserHandler,
		videoHandler:   config.VideoHandler,
		authMiddleware: config.AuthMiddleware,
		requireAuth:    config.RequireAuth,
		dbHealth:       config.DBHealth,
		metrics:        config.Metrics,
		metricsEnabled: config.MetricsEnabled,
		logger:         config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(rt.logger))

	// Health and metrics bypass the store guard so operators see the
	// server even when the database is down.
	r.Get("/health", rt.handleHealth)
	if rt.metricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(MetricsMiddleware(rt.metrics))
		r.Use(StoreGuard(rt.dbHealth, rt.logger))
		r.Use(rt.authMiddleware)

		rt.userHandler.RegisterRoutes(r)
		rt.videoHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(rt.requireAuth)
			rt.userHandler.RegisterProtectedRoutes(r)
		})
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
