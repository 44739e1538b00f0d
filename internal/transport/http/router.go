package http

import (
	"github.com/ayushman2046/Vendor-orders/internal/transport/http/handler"
	"github.com/ayushman2046/Vendor-orders/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Events  *handler.EventHandler
	Metrics *handler.MetricsHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers, authToken string) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := middleware.NewAuthMiddleware(authToken)

	app.Post("/events", auth, h.Events.Publish)
	app.Get("/metrics", auth, h.Metrics.GetVendorMetrics)
}
