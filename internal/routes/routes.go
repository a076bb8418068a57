package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/audiomint/audiomint-backend/internal/apps"
	"github.com/audiomint/audiomint-backend/internal/handlers"
	"github.com/audiomint/audiomint-backend/internal/identity"
	"github.com/audiomint/audiomint-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	deps *apps.Deps,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	usageHandler *handlers.UsageHandler,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Webhooks authenticate with their own shared token, no JWT
	webhooks := api.Group("/webhooks")
	webhooks.Post("/revenuecat", webhookHandler.HandleRevenueCat)

	// Everything feature-facing requires a verified token and a resolved user
	protected := api.Group("/p", middleware.JWTProtected(deps.Cfg), identity.Resolver(deps.DB))

	// Generation endpoints are costly; keep a tighter per-IP window
	protected.Use(limiter.New(limiter.Config{
		Max:               30,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	protected.Get("/usage", usageHandler.Current)

	admin := api.Group("/admin",
		middleware.JWTProtected(deps.Cfg),
		identity.Resolver(deps.DB),
		middleware.AdminRequired(deps.DB, deps.Cfg),
	)

	for _, p := range plugins {
		p.RegisterRoutes(protected, deps)
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin, deps)
		}
	}
}
