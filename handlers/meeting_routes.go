package handlers

import (
	"hackathon-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMeetingRoutes(app *fiber.App, meetingService *services.MeetingService) {
	app.Post("/hackathons/:id/meetings", meetingService.ScheduleMeeting)
	app.Get("/hackathons/:id/meetings/mine", meetingService.MyMeetings)
	app.Post("/hackathons/:id/meetings/:meeting_id/cancel", meetingService.CancelMeeting)

	app.Get("/hackathons/:id/hosts/:host_id/meetings", meetingService.HostScheduledTimes) // ?date=YYYY-MM-DD
	app.Get("/hackathons/:id/hosts/:host_id/availability", meetingService.HostAvailability)
	app.Get("/hackathons/:id/teams/:team_id/meetings", meetingService.TeamMeetings)
}
