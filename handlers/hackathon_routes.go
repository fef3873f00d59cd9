package handlers

import (
	"hackathon-platform/middleware"
	"hackathon-platform/services"

	"github.com/gofiber/fiber/v2"
)

// Hackathon-scoped handlers resolve the caller themselves so that a missing
// hackathon or stage reports 404 before any 401/403.
func SetupHackathonRoutes(app *fiber.App, hackathonService *services.HackathonService, registrationService *services.RegistrationService) {
	app.Get("/hackathons", hackathonService.ListHackathons)
	app.Post("/hackathons", hackathonService.CreateHackathon)
	app.Get("/hackathons/:id", hackathonService.GetHackathon)
	app.Put("/hackathons/:id", hackathonService.UpdateHackathon)
	app.Patch("/hackathons/:id/status", hackathonService.PinStatus)

	// Registrations
	app.Post("/hackathons/:id/registrations", registrationService.Register)
	app.Get("/hackathons/:id/registrations", registrationService.ListRegistrations)
	app.Get("/hackathons/:id/registrations/me", registrationService.GetMyRegistration)
	app.Delete("/hackathons/:id/registrations/me", registrationService.Withdraw)
	app.Patch("/hackathons/:id/registrations/:user_id", registrationService.ReviewRegistration)

	// Teams
	app.Get("/hackathons/:id/teams", registrationService.ListTeams)
	app.Post("/hackathons/:id/teams", registrationService.CreateTeam)
	app.Post("/hackathons/:id/teams/:team_id/join", registrationService.JoinTeam)

	// Staff (mentors, judges)
	app.Get("/hackathons/:id/staff", registrationService.ListStaff)
	app.Put("/hackathons/:id/staff", registrationService.AssignStaff)
	app.Delete("/hackathons/:id/staff/:user_id", registrationService.RemoveStaff)
}

func SetupOrganizationRoutes(app *fiber.App, organizationService *services.OrganizationService, userService *services.UserService) {
	orgs := app.Group("/organizations", middleware.RequireAuth())
	orgs.Post("/", organizationService.CreateOrganization)
	orgs.Get("/mine", organizationService.ListMyOrganizations)
	orgs.Put("/:id/members", organizationService.SetMember)
	orgs.Delete("/:id/members/:user_id", organizationService.RemoveMember)

	app.Get("/users/search", middleware.RequireAuth(), userService.SearchUsers)
}
