package routes

import (
	"github.com/DedS3t/monopoly-economy/app/controllers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(a *fiber.App, h *controllers.Handler) {
	route := a.Group("/user", h.Protected())
	route.Get("/cur", h.Me)
}
