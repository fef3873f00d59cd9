package handlers

import (
	"hackathon-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupStageRoutes(app *fiber.App, stageService *services.StageService) {
	app.Get("/hackathons/:id/stages", stageService.ListStages)
	app.Post("/hackathons/:id/stages", stageService.CreateStage)
	app.Get("/hackathons/:id/stages/:stage_id", stageService.GetStage)
	app.Put("/hackathons/:id/stages/:stage_id", stageService.UpdateStage)
	app.Delete("/hackathons/:id/stages/:stage_id", stageService.DeleteStage) // ?force=true removes submissions too
	app.Post("/hackathons/:id/stages/:stage_id/advance", stageService.AdvanceStage)
}

func SetupSubmissionRoutes(app *fiber.App, submissionService *services.SubmissionService) {
	app.Post("/hackathons/:id/stages/:stage_id/submissions", submissionService.CreateSubmission)
	app.Get("/hackathons/:id/stages/:stage_id/submissions", submissionService.ListSubmissions)
	app.Post("/hackathons/:id/stages/:stage_id/attachments", submissionService.UploadAttachment)

	// search must be registered before :submission_id
	app.Get("/hackathons/:id/submissions/search", submissionService.SearchSubmissions)
	app.Get("/hackathons/:id/submissions/:submission_id", submissionService.GetSubmission)
	app.Put("/hackathons/:id/submissions/:submission_id", submissionService.EditSubmission)
	app.Delete("/hackathons/:id/submissions/:submission_id", submissionService.DeleteSubmission)
	app.Patch("/hackathons/:id/submissions/:submission_id/review", submissionService.ReviewSubmission)
}
