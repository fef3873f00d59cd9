package handlers

import (
	"hackathon-platform/config"
	"hackathon-platform/middleware"
	"hackathon-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAnnouncementRoutes(app *fiber.App, announcementService *services.AnnouncementService) {
	app.Get("/hackathons/:id/announcements", announcementService.ListAnnouncements) // organizers: ?all=true
	app.Post("/hackathons/:id/announcements", announcementService.CreateAnnouncement)
	app.Put("/hackathons/:id/announcements/:announcement_id", announcementService.UpdateAnnouncement)
	app.Delete("/hackathons/:id/announcements/:announcement_id", announcementService.DeleteAnnouncement)
	app.Post("/hackathons/:id/announcements/:announcement_id/publish", announcementService.PublishAnnouncement)
	app.Post("/hackathons/:id/announcements/:announcement_id/republish", announcementService.RepublishAnnouncement)
}

func SetupNotificationRoutes(app *fiber.App, notificationService *services.NotificationService) {
	// EventSource cannot send headers, so the stream also accepts ?token=
	app.Get("/notifications/stream", middleware.SSEAuthMiddleware(config.Env.JWTSecret), notificationService.StreamUserNotificationsSSE)

	secured := app.Group("/notifications", middleware.RequireAuth())
	secured.Get("/", notificationService.GetUserNotifications)
	secured.Get("/counts", notificationService.GetUserNotificationCounts)
	secured.Patch("/read-all", notificationService.MarkAllNotificationsAsRead)
	secured.Patch("/:id/read", notificationService.MarkNotificationAsRead)
}
