package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/db-assistant/internal/api/handler"
	customMiddleware "github.com/Rrens/db-assistant/internal/api/middleware"
	"github.com/Rrens/db-assistant/internal/config"
	"github.com/Rrens/db-assistant/internal/database"
	"github.com/Rrens/db-assistant/internal/security"
	"github.com/Rrens/db-assistant/internal/tools"
)

// Deps are the collaborators the router serves
type Deps struct {
	Registry  *tools.Registry
	Connector database.Connector
	// Limiter is optional; nil disables rate limiting.
	Limiter customMiddleware.Limiter
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.WriteTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
	}

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	toolHandler := handler.NewToolHandler(deps.Registry)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Connector))

		r.Group(func(r chi.Router) {
			if cfg.Auth.Enabled() {
				jwtManager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
				r.Use(customMiddleware.NewAuthMiddleware(jwtManager).Authenticate)
			} else {
				log.Warn().Msg("auth.jwt_secret is empty, tool endpoints are unauthenticated")
			}
			if deps.Limiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.Limiter).Limit)
			}

			r.Get("/tools", toolHandler.List)
			r.Post("/tools/{name}", toolHandler.Call)
		})
	})

	return r
}
