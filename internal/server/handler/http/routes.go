// Package http provides HTTP routing and middleware configuration
// for the auth service.
package http

import (
	"net/http"

	"github.com/akovalenko/sessionauth/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter constructs and returns an HTTP handler that serves
// the auth API. It applies CORS for the configured frontend origin,
// JSON content-type enforcement, and request logging, and mounts the
// registration, login, and authenticated-user endpoints.
//
// Parameters:
//
//	authHandler  - handler for registration, login, and user endpoints
//	validate     - bearer-token validator guarding protected routes
//	frontendURL  - origin allowed by CORS
//	logger       - structured logger for request logging middleware
//
// Routes:
//
//	POST /register  → authHandler.Register
//	POST /login     → authHandler.Login
//	GET  /user/me   → authHandler.Me (protected by BearerAuth)
func NewRouter(
	authHandler *AuthHandler,
	validate middleware.TokenValidator,
	frontendURL string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Allow the frontend origin to call the API from the browser
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Only allow requests with Content-Type: application/json
	// (requests with no body, such as GET /user/me, pass through)
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Public endpoints
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)

	// Protected group: requires a valid bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(validate))
		r.Get("/user/me", authHandler.Me)
	})

	return r
}
