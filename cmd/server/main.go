// Package main initializes and starts the auth HTTP server,
// setting up configuration, logging, the database connection,
// repositories, services, and handlers.
package main

import (
	"cmp"
	"fmt"

	nethttp "net/http"

	"github.com/akovalenko/sessionauth/internal/config"
	"github.com/akovalenko/sessionauth/internal/db"
	"github.com/akovalenko/sessionauth/internal/logger"
	"github.com/akovalenko/sessionauth/internal/repository"
	"github.com/akovalenko/sessionauth/internal/server/handler/http"
	"github.com/akovalenko/sessionauth/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.Port
	dbName := options.DatabaseDSN

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if options.JWTSecret == "" {
		zapLogger.Fatal("JWT_SECRET is required to sign session tokens")
	}

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(dbName)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Initialize the user repository.
	userRepo := repository.NewPostgresUserRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, []byte(options.JWTSecret), options.TokenTTL)

	// Create HTTP handlers for the auth endpoints.
	authHandler := &http.AuthHandler{AuthService: authService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, authService.ValidateToken, options.FrontendURL, zapLogger)

	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server",
		zap.String("addr", addr),
		zap.String("frontend", options.FrontendURL),
	)
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
