package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Plan    *handlers.PlanHandler
	Payment *handlers.PaymentHandler
	News    *handlers.NewsHandler
	Admin   *handlers.AdminHandler
	Health  *handlers.HealthHandler
}

// Setup registers every route. limiterStorage may be nil for in-memory limits.
func Setup(
	app *fiber.App,
	cfg *config.Config,
	issuer *auth.SessionIssuer,
	users *store.UserStore,
	h Handlers,
	limiterStorage fiber.Storage,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Use(middleware.RateLimit(cfg.RateLimitMax, limiterStorage))

	api.Get("/health", h.Health.Check)
	api.Get("/news", h.News.List)

	jwt := middleware.JWTProtected(issuer)
	adminOnly := middleware.AdminRequired(users, issuer)
	// stricter per-IP limit on credential endpoints
	authLimit := middleware.RateLimit(cfg.AuthRateLimitMax, limiterStorage)

	// Accounts
	u := api.Group("/users")
	u.Post("/signup", authLimit, h.Auth.Signup)
	u.Post("/login", authLimit, h.Auth.Login)
	u.Get("/verify-email/:token", h.Auth.VerifyEmail)
	u.Post("/resend-verification", authLimit, h.Auth.ResendVerification)
	u.Post("/forgot-password", authLimit, h.Auth.ForgotPassword)
	u.Post("/reset-password/:token", authLimit, h.Auth.ResetPassword)

	u.Get("/profile", jwt, h.User.GetProfile)
	u.Put("/profile", jwt, h.User.UpdateProfile)
	u.Get("/plan", jwt, h.User.GetPlan)
	u.Post("/upgrade", jwt, h.User.Upgrade)
	u.Get("/stats", jwt, h.User.Stats)
	u.Put("/change-password", jwt, h.Auth.ChangePassword)

	// Federated login
	fed := api.Group("/auth", authLimit)
	fed.Post("/google", h.Auth.GoogleLogin)
	fed.Post("/apple", h.Auth.AppleLogin)

	// Workout plans: public reads, admin writes
	api.Get("/plans", h.Plan.List)
	api.Get("/plans/bodytype/:bodyType", h.Plan.ListByBodyType)
	api.Get("/plans/:id", h.Plan.Get)
	api.Post("/plans", adminOnly, h.Plan.Create)
	api.Put("/plans/:id", adminOnly, h.Plan.Update)
	api.Delete("/plans/:id", adminOnly, h.Plan.Delete)

	// Payments
	api.Post("/payments/create-payment-intent", jwt, h.Payment.CreateIntent)
	api.Post("/payments/confirm-payment", jwt, h.Payment.Confirm)

	// Admin panel. Login is registered before the gated group so the gate
	// never runs for it.
	api.Post("/admin/login", authLimit, h.Auth.AdminLogin)
	admin := api.Group("/admin", adminOnly)
	admin.Get("/dashboard", h.Admin.Dashboard)
	admin.Get("/users", h.Admin.ListUsers)
	admin.Get("/users/:id", h.Admin.GetUser)
	admin.Post("/users", h.Admin.CreateUser)
	admin.Put("/users/:id", h.Admin.UpdateUser)
	admin.Delete("/users/:id", h.Admin.DeleteUser)
}
