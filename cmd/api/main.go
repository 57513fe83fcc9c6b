package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/nihalm/duetrack/docs"
	"github.com/nihalm/duetrack/internal/auth"
	"github.com/nihalm/duetrack/internal/config"
	"github.com/nihalm/duetrack/internal/connection"
	"github.com/nihalm/duetrack/internal/database"
	"github.com/nihalm/duetrack/internal/due"
	"github.com/nihalm/duetrack/internal/extractor"
	"github.com/nihalm/duetrack/internal/mail"
	"github.com/nihalm/duetrack/internal/notification"
	"github.com/nihalm/duetrack/internal/request"
	"github.com/nihalm/duetrack/internal/storage"
	"github.com/nihalm/duetrack/internal/user"
	mw "github.com/nihalm/duetrack/pkg/middleware"
)

// @title        duetrack API
// @version      1.0
// @description  Personal dues tracker: mutual connections, free-text payment claims and a settled running ledger per connection.
// @BasePath     /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	logger.Info("connected to database")

	// Collaborators
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenExpiry)
	mailer := mail.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom)
	uploader, err := storage.NewDiskUploader(cfg.UploadDir)
	if err != nil {
		logger.Fatal("failed to prepare upload storage", zap.Error(err))
	}
	extractorClient := extractor.NewOpenRouterClient(cfg.ExtractorBaseURL, cfg.ExtractorAPIKey, cfg.ExtractorModel, cfg.ExtractorTimeout)
	amountExtractor := extractor.New(extractorClient)

	authmw := mw.Auth(jwtManager)

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, jwtManager, mailer, uploader, logger)
	userHandler := user.NewHandler(userService, authmw, cfg.TokenExpiry)

	// Notification feature
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo, logger)
	notificationHandler := notification.NewHandler(notificationService)

	// Ledger feature
	dueRepo := due.NewRepository(db)
	connectionRepo := connection.NewRepository(db)
	dueService := due.NewService(dueRepo, connectionRepo, userRepo, amountExtractor, logger)
	dueHandler := due.NewHandler(dueService)

	// Connection feature
	connectionService := connection.NewService(connectionRepo, dueRepo, dueRepo, userRepo)
	connectionHandler := connection.NewHandler(connectionService)

	// Request feature
	requestRepo := request.NewRepository(db)
	requestService := request.NewService(requestRepo, connectionService, userRepo, notificationService)
	requestHandler := request.NewHandler(requestService)

	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// User endpoints guard their session routes themselves
		r.Mount("/users", userHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(authmw)
			r.Mount("/connections", connectionHandler.Routes())
			r.Mount("/dues", dueHandler.Routes())
			r.Mount("/requests", requestHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
		})
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
