package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/config"
)

// CORS allows the configured origins. Credentials are only allowed with an
// explicit origin list; fiber refuses them together with a wildcard.
func CORS(cfg *config.Config) fiber.Handler {
	origins := cfg.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders:    fiber.HeaderXRequestID,
		AllowCredentials: origins != "*",
		MaxAge:           600,
	})
}
