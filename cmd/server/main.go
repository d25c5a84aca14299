package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/mail"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/maintenance"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/payments"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" && cfg.DatabaseURL == "" {
		slog.Error("DB_PASSWORD or DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log sink (ERROR+ async batch)
	pgLogHandler := logging.EnableDBSink(db)

	metrics.MustRegister()

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Optional Redis for shared rate-limit counters
	var limiterStorage fiber.Storage
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			slog.Warn("redis unavailable, using in-memory rate limits", "error", err)
			redisClient.Close()
		} else {
			limiterStorage = middleware.NewRedisStorage(redisClient, "gymbro:limiter:")
			slog.Info("redis connected")
		}
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)

	var processor payments.Processor
	if cfg.StripeSecretKey != "" {
		processor = payments.NewStripeProcessor(cfg.StripeSecretKey)
	} else {
		slog.Warn("STRIPE_SECRET_KEY not set, payment endpoints will return 503")
	}

	// Core auth components
	userStore := store.NewUserStore(db)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	issuer := auth.NewSessionIssuer(cfg.JWTSecret, cfg.JWTIssuer, auth.SessionTTLs{
		User:      cfg.UserSessionTTL,
		Admin:     cfg.AdminSessionTTL,
		Federated: cfg.FederatedSessTTL,
	})

	// Services
	authService := services.NewAuthService(userStore, hasher, issuer, mail.NewDispatcher(cfg), publisher, cfg)
	if cfg.GoogleClientID != "" {
		authService.RegisterVerifier(store.ProviderGoogle, identity.NewGoogleVerifier(cfg.GoogleClientID))
	}
	if cfg.AppleBundleID != "" {
		authService.RegisterVerifier(store.ProviderApple, identity.NewAppleVerifier(cfg.AppleBundleID))
	}
	userService := services.NewUserService(userStore, publisher)
	planService := services.NewPlanService(db)
	paymentService := services.NewPaymentService(db, userStore, processor, publisher)
	adminService := services.NewAdminService(userStore, planService, hasher)

	if err := authService.BootstrapAdmin(context.Background()); err != nil {
		slog.Error("admin bootstrap failed", "error", err)
	}

	// Expired tokens and old logs
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	maintenance.NewSweeper(db, userStore, cfg.LogRetention).Start(sweepCtx, time.Hour)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(metrics.Middleware())
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, issuer, userStore, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		User:    handlers.NewUserHandler(userService),
		Plan:    handlers.NewPlanHandler(planService),
		Payment: handlers.NewPaymentHandler(paymentService),
		News:    handlers.NewNewsHandler(services.NewNewsService()),
		Admin:   handlers.NewAdminHandler(adminService),
		Health:  handlers.NewHealthHandler(db),
	}, limiterStorage)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	stopSweeper()
	if err := publisher.Close(); err != nil {
		slog.Error("event publisher close error", "error", err)
	}
	if limiterStorage != nil {
		if err := limiterStorage.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
