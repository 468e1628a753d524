package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shenal-anthony/TMS-sub000/internal/config"
	"github.com/shenal-anthony/TMS-sub000/internal/database"
	"github.com/shenal-anthony/TMS-sub000/internal/handlers"
	"github.com/shenal-anthony/TMS-sub000/internal/middleware"
	"github.com/shenal-anthony/TMS-sub000/internal/services"
	"github.com/shenal-anthony/TMS-sub000/pkg/jwt"
	"github.com/shenal-anthony/TMS-sub000/pkg/realtime"
	"github.com/shenal-anthony/TMS-sub000/pkg/validator"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting tourism booking backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(db, cfg.Database.MigrationsPath, logger); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Real-time broker
	broker, err := newBroker(cfg.Realtime, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize realtime broker: %v", err)
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	bookingTokenIssuer := jwt.NewBookingTokenIssuer(cfg.BookingToken.Secret, cfg.BookingToken.TTL)

	offerRepository := database.NewGuideResponseRepository(db)
	windows := services.NewTripWindowResolver(cfg.Booking.FallbackTripDays)

	auditService := services.NewAuditService(database.NewAuditRepository(db), logger)
	authService := services.NewAuthService(database.NewUserRepository(db), jwtService, logger)
	bookingTokenService := services.NewBookingTokenService(bookingTokenIssuer, database.NewCatalogRepository(db), logger)
	bookingService := services.NewBookingService(db, bookingTokenService, cfg.Booking, logger)
	availabilityService := services.NewAvailabilityService(db, windows, logger)
	assignmentService := services.NewAssignmentService(db, windows, logger)
	notifierService := services.NewNotifierService(db, broker, logger)

	// Initialize and start cron service
	cronService := services.NewCronService(offerRepository, cfg.Booking.OfferTTL, cfg.Booking.OfferSweepSpec, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("✓ Cron service started - stale guide offers are swept")

	// Decision consumer applies guide accept/reject decisions
	var consumer *services.DecisionConsumer
	if cfg.Realtime.RunDecisionConsumer {
		consumer = services.NewDecisionConsumer(broker, assignmentService, offerRepository, logger)
		if err := consumer.Start(context.Background()); err != nil {
			logger.Fatalf("Failed to start decision consumer: %v", err)
		}
		logger.Info("✓ Guide decision consumer started")
	}

	// Request validation
	contacts := validator.NewContactValidator(cfg.Booking.DefaultCountryCode)
	if err := handlers.RegisterValidators(contacts); err != nil {
		logger.Fatalf("Failed to register validators: %v", err)
	}

	// Initialize handlers
	errs := handlers.NewErrorResponder(logger, !cfg.Server.IsProduction())
	authHandler := handlers.NewAuthHandler(authService, auditService, errs, logger)
	bookingTokenHandler := handlers.NewBookingTokenHandler(bookingTokenService, errs, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, availabilityService, contacts, auditService, errs, logger)
	guideHandler := handlers.NewGuideHandler(assignmentService, notifierService, auditService, errs, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, 10*time.Minute)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", handlers.BookingKeyHeader, middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check and metrics endpoints
	router.GET("/health", handlers.HealthCheck(db, cronService, version))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.AuthMiddleware(jwtService, logger)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)
	guideOnly := middleware.RequireRole(middleware.RoleGuide)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rateLimiter), authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/change-password", authRequired, authHandler.ChangePassword)
		}

		packages := api.Group("/packages", middleware.RateLimit(rateLimiter))
		{
			packages.POST("/:id/check-availability", bookingTokenHandler.CheckAvailability)
			packages.POST("/verify-token", bookingTokenHandler.VerifyToken)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("/checkout", middleware.RateLimit(rateLimiter), bookingHandler.Checkout)

			admin := bookings.Group("", authRequired, adminOnly)
			admin.POST("", bookingHandler.Create)
			admin.GET("", bookingHandler.List)
			admin.GET("/pending-with-guides", bookingHandler.PendingWithGuides)
			admin.GET("/:id", bookingHandler.Get)
			admin.GET("/:id/history", bookingHandler.History)
			admin.PATCH("/:id", bookingHandler.Transition)
			admin.DELETE("/:id/cancel", bookingHandler.Cancel)
			admin.DELETE("/:id", bookingHandler.Delete)
		}

		guides := api.Group("/guides", authRequired)
		{
			guides.POST("/:bookingId/assign", adminOnly, guideHandler.Assign)
			guides.POST("/:bookingId/notify", adminOnly, guideHandler.Notify)
			guides.GET("/events/stream", adminOnly, guideHandler.StreamAdmin)

			guides.GET("/requests", guideOnly, guideHandler.ListRequests)
			guides.GET("/assignments", guideOnly, guideHandler.ListAssignments)
			guides.GET("/requests/stream", guideOnly, guideHandler.Stream)
			guides.POST("/requests/:bookingId/respond", guideOnly, guideHandler.Respond)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: event streams stay open
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	logger.Info("Stopping cron service...")
	cronService.Stop()
	if consumer != nil {
		consumer.Stop()
	}
	rateLimiter.Close()

	// Closing the broker ends open event streams so Shutdown can finish
	if err := broker.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close realtime broker")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// newBroker builds the configured pub/sub backend
func newBroker(cfg config.RealtimeConfig, logger *logrus.Logger) (realtime.Broker, error) {
	if cfg.Backend != "redis" {
		logger.Info("Using in-process realtime broker")
		return realtime.NewMemoryBroker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.WithField("addr", cfg.RedisAddr).Info("Using redis realtime broker")
	return realtime.NewRedisBroker(client, logger), nil
}
