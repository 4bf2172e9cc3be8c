package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"alpwiki/internal/auth"
	"alpwiki/internal/config"
	"alpwiki/internal/domain/models"
	"alpwiki/internal/handler"
	"alpwiki/internal/kinds"
	"alpwiki/internal/middleware"
	"alpwiki/internal/repository/postgres"
	"alpwiki/internal/service"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	historyRepo := postgres.NewHistoryRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Load the document kind registry
	registry, err := kinds.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load kind registry: %v", err)
	}
	logger.Info("kind registry loaded", "langs", registry.Langs())

	// Create services and handlers
	docService := service.NewDocumentService(docRepo, historyRepo, txManager, registry, logger)
	waypointHandler := handler.NewDocumentHandler(docService, models.KindWaypoint, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", waypointHandler.HealthCheck)

	// Waypoint routes
	mux.HandleFunc("GET /api/waypoints", waypointHandler.List)
	mux.HandleFunc("POST /api/waypoints", waypointHandler.Create)
	mux.HandleFunc("GET /api/waypoints/{id}", waypointHandler.Get)
	mux.HandleFunc("PUT /api/waypoints/{id}", waypointHandler.Update)
	mux.HandleFunc("GET /api/waypoints/{id}/history", waypointHandler.History)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	if cfg.JWKSURL != "" {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		httpHandler = middleware.AuthMiddleware(jwtVerifier)(httpHandler)
	} else if cfg.Environment == "prod" {
		log.Fatal("JWKS_URL is required in production")
	} else {
		logger.Warn("JWKS_URL not set, write endpoints are unauthenticated")
	}
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
