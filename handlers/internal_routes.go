package handlers

import (
	"hackathon-platform/middleware"
	"hackathon-platform/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupInternalRoutes exposes operator endpoints behind the shared service token.
func SetupInternalRoutes(app *fiber.App, serviceToken string, failures *services.DeliveryFailureService) {
	internal := app.Group("/internal", middleware.ServiceTokenAuth(serviceToken))
	internal.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	internal.Get("/delivery-failures", failures.ListDeliveryFailures)
	internal.Post("/delivery-failures/:id/resolve", failures.ResolveDeliveryFailure)
}
