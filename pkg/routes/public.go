package routes

import (
	"github.com/DedS3t/monopoly-economy/app/controllers"
	"github.com/DedS3t/monopoly-economy/platform/metrics"
	"github.com/gofiber/fiber/v2"
)

// PublicRoutes need no token. Creating or joining a session issues one.
func PublicRoutes(a *fiber.App, h *controllers.Handler) {
	a.Get("/health", controllers.Health)
	a.Get("/metrics", metrics.Handler())
	a.Get("/api/properties", h.ListProperties)

	route := a.Group("/api/sessions")
	route.Post("/", h.CreateSession)
	route.Get("/:code", h.GetSession)
	route.Post("/:code/join", h.JoinSession)
}
