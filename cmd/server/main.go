package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donorhub/internal/adapters/email"
	"donorhub/internal/adapters/http/middleware"
	"donorhub/internal/adapters/http/routes"
	"donorhub/internal/adapters/persistence/memory"
	"donorhub/internal/adapters/persistence/repositories"
	"donorhub/internal/config"
	"donorhub/internal/core/services"
	"donorhub/internal/pkg/jwt"
	"donorhub/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	_ "donorhub/docs" // Swagger docs
)

// @title DonorHub API
// @version 1.0
// @description DonorHub authentication and role-based access control API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := config.NewLogger(cfg)

	codec, err := jwt.NewCodec(cfg.JWT.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token codec")
	}
	hasher := password.NewHasher(password.DefaultCost)

	users, db, health := openStore(cfg, log)
	defer config.CloseDatabase()

	// Seed roles and the bootstrap admin
	if err := config.NewSeeder(db, users, hasher, cfg.Admin, log).Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}

	mailer := newMailer(cfg, log)
	issuer := services.NewTokenIssuer(codec, cfg.AccessTTL(), cfg.RefreshTTL())
	authService := services.NewAuthService(users, hasher, issuer, codec, mailer, log)

	// Daily verification reminders
	reminder := services.NewVerificationReminder(authService, users, log)
	if err := reminder.Start(cfg.VerificationReminderCron); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.VerificationReminderCron).Msg("invalid reminder schedule")
	}
	defer reminder.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "DonorHub API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, cfg, routes.Services{
		Auth:   authService,
		Users:  services.NewUserService(users),
		Guard:  services.NewGuard(codec, users),
		Health: health,
	})

	// Graceful shutdown
	go gracefulShutdown(app, log)

	// Start server
	log.Info().Str("port", cfg.Port).Str("mode", cfg.AppMode).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// openStore selects the identity store. The memory store is for local runs only.
func openStore(cfg *config.Config, log zerolog.Logger) (services.UserStore, *gorm.DB, func() error) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.NewStore(), nil, func() error { return nil }
	}

	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto migrate (creates tables if not exist)
	if err := config.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to auto migrate")
	}
	log.Info().Msg("database migration completed")

	return repositories.NewUserRepository(db), db, config.HealthCheck
}

// newMailer returns the Mailjet sender, or a logging stand-in when credentials are missing
func newMailer(cfg *config.Config, log zerolog.Logger) services.EmailSender {
	if !cfg.EmailEnabled() {
		log.Warn().Msg("email credentials not configured; outbound email disabled")
		return email.NewLogSender(log)
	}
	return email.NewMailjetSender(email.Config{
		APIKey:      cfg.Email.APIKey,
		APISecret:   cfg.Email.APISecret,
		FromEmail:   cfg.Email.FromEmail,
		FromName:    cfg.Email.FromName,
		FrontendURL: cfg.Email.FrontendURL,
	}, log)
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, log zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped gracefully")
}
