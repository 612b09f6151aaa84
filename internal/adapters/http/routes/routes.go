package routes

import (
	"donorhub/internal/adapters/http/handlers"
	"donorhub/internal/adapters/http/middleware"
	"donorhub/internal/config"
	"donorhub/internal/core/services"
	"donorhub/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Services groups the use cases the HTTP layer exposes
type Services struct {
	Auth  *services.AuthService
	Users *services.UserService
	Guard *services.Guard

	// Health reports storage health for /health
	Health func() error
}

// Setup configures all routes for the application
func Setup(app *fiber.App, cfg *config.Config, svc Services) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, svc.Health)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	userHandler := handlers.NewUserHandler(svc.Users)

	// Health & ops
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", metrics.Handler())

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1, authHandler, svc.Guard)
	setupUserRoutes(apiV1, userHandler, svc.Guard)
}

// setupAuthRoutes configures /auth. Responses carry tokens and are never cached.
func setupAuthRoutes(router fiber.Router, h *handlers.AuthHandler, guard *services.Guard) {
	auth := router.Group("/auth", middleware.NoStore())
	authenticated := middleware.Guard(guard.Authenticated())

	// Public routes
	auth.Post("/register", middleware.AuthRateLimiter(), middleware.OptionalAuth(guard), h.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), h.Login)
	auth.Post("/refresh", h.RefreshToken)
	auth.Post("/forgot-password", middleware.StrictRateLimiter(), h.ForgotPassword)
	auth.Post("/reset-password", middleware.StrictRateLimiter(), h.ResetPassword)
	auth.Post("/verify-email", h.VerifyEmail)

	// Protected routes
	auth.Post("/logout", authenticated, h.Logout)
	auth.Post("/change-password", authenticated, h.ChangePassword)
	auth.Post("/upgrade-to-donor", authenticated, h.UpgradeToDonor)
	auth.Get("/me", authenticated, h.Me)
}

// setupUserRoutes configures the role-gated directory routes
func setupUserRoutes(router fiber.Router, h *handlers.UserHandler, guard *services.Guard) {
	router.Get("/admin/users", middleware.Guard(guard.RequireAdmin()), h.ListUsers)
	router.Get("/users/:id", middleware.Guard(guard.RequireOrganizationTier()), h.GetUser)
	router.Get("/roles", middleware.Guard(guard.RequireAuditTier()), h.ListRoles)
}
