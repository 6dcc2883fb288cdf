package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/config"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/dto"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/handlers"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	userHandler *handlers.UserHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	healthHandler *handlers.HealthHandler,
) {
	app.Get("/health", healthHandler.Check)

	// Per-IP sliding window, disabled when RATE_LIMIT_MAX is 0
	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:               cfg.RateLimitMax,
			Expiration:        1 * time.Minute,
			LimiterMiddleware: limiter.SlidingWindow{},
			KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(dto.Fail("Too many requests"))
			},
		}))
	}

	app.Get("/users/all", userHandler.List)
	app.Post("/users", userHandler.Create)
	app.Get("/user/:id", userHandler.Get)
	app.Put("/user/:id", userHandler.Update)
	app.Delete("/user/:id", userHandler.Delete)

	analytics := app.Group("/analytics")
	analytics.Get("/gender", analyticsHandler.Gender)
	analytics.Get("/monthly-users", analyticsHandler.MonthlyUsers)
	analytics.Get("/email-domains", analyticsHandler.EmailDomains)
}
