package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/travelwallet/travelwallet/internal/config"
	"github.com/travelwallet/travelwallet/internal/handler"
	"github.com/travelwallet/travelwallet/internal/middleware"
)

// routerDeps groups what setupRouter mounts.
type routerDeps struct {
	root    *handler.Handler
	health  *handler.HealthHandler
	tours   *handler.TourHandler
	users   *handler.UserHandler
	metrics http.Handler
	limiter middleware.RateLimiter // nil disables rate limiting
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Probes and metrics
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	if deps.metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.metrics)
	}

	// Root info endpoint
	r.Get("/", deps.root.Hello)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:             logger,
		Limiter:            deps.limiter,
		IPEnabled:          cfg.RateLimitEnabled,
		IPRPS:              cfg.RateLimitRPS,
		IPBurst:            cfg.RateLimitBurst,
		TourWriteEnabled:   cfg.RateLimitTourWriteEnabled,
		TourWritePerMinute: cfg.RateLimitTourWritePerMinute,
		TourWriteBurst:     cfg.RateLimitTourWriteBurst,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		r.Use(middleware.RateLimitIP(rateLimitCfg))

		// Users
		r.Post("/register", deps.users.Register)
		r.Post("/login", deps.users.Login)
		r.Get("/search-user", deps.users.Search)

		// Tours
		r.Post("/tours", deps.tours.Create)
		r.With(middleware.ValidatePathParams).Get("/tours/{email}", deps.tours.ListByEmail)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ValidatePathParams)
			r.Use(middleware.RateLimitTourWrites(rateLimitCfg))

			r.Get("/tour/{id}", deps.tours.Get)
			r.Patch("/update-tour/{id}", deps.tours.Update)
			r.Delete("/delete-tour/{id}", deps.tours.Delete)

			// Ledger
			r.Patch("/tours/{id}/addFriend", deps.tours.AddFriend)
			r.Delete("/tour/{id}/removeFriend/{email}", deps.tours.RemoveFriend)
			r.Patch("/tours/{id}/addExpense", deps.tours.AddExpense)
			r.Get("/tours/{id}/balances", deps.tours.Balances)
			r.Get("/tours/{id}/activity", deps.tours.Activity)
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.root.NotFound)
	r.MethodNotAllowed(deps.root.MethodNotAllowed)

	return r
}
