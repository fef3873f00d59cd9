package services

import (
	"time"

	"hackathon-platform/models"
	"hackathon-platform/utils"

	"gorm.io/datatypes"
)

type AttachmentInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	URL         string `json:"url" validate:"required,http_url"`
	ContentType string `json:"content_type" validate:"omitempty,max=128"`
}

// SubmissionContent holds the author-editable part of a submission.
type SubmissionContent struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=5000"`
	Content     string            `json:"content" validate:"max=20000"`
	RepoURL     string            `json:"repo_url" validate:"omitempty,http_url"`
	DemoURL     string            `json:"demo_url" validate:"omitempty,http_url"`
	FileURL     string            `json:"file_url" validate:"omitempty,http_url"`
	Links       []string          `json:"links" validate:"max=20,dive,http_url"`
	Attachments []AttachmentInput `json:"attachments" validate:"max=20,dive"`
}

func (in SubmissionContent) Validate() error {
	if err := utils.ValidateStruct(in); err != nil {
		return Invalid(utils.FormatValidationErrors(err))
	}
	return nil
}

// ApplyTo copies content fields only; status, score and authorship are untouched.
func (in SubmissionContent) ApplyTo(s *models.Submission) {
	s.Title = in.Title
	s.Description = in.Description
	s.Content = in.Content
	s.RepoURL = in.RepoURL
	s.DemoURL = in.DemoURL
	s.FileURL = in.FileURL
	links := make([]string, len(in.Links))
	copy(links, in.Links)
	s.Links = datatypes.JSONSlice[string](links)
	attachments := make([]models.Attachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		attachments = append(attachments, models.Attachment{Name: a.Name, URL: a.URL, ContentType: a.ContentType})
	}
	s.Attachments = datatypes.JSONSlice[models.Attachment](attachments)
}

// Author identifies who owns a submission for a stage.
type Author struct {
	Key    string
	UserID *string
	TeamID *string
}

// ResolveAuthor picks the team as author on team-based stages and the user otherwise.
func ResolveAuthor(stage models.Stage, userID string, team *models.TeamMember) (Author, error) {
	if stage.IsTeamBased {
		if team == nil {
			return Author{}, Invalid("this stage requires a team submission and you are not in a team")
		}
		teamID := team.TeamID
		return Author{Key: models.TeamAuthorKey(teamID), TeamID: &teamID}, nil
	}
	uid := userID
	return Author{Key: models.UserAuthorKey(uid), UserID: &uid}, nil
}

func deadlinePassed(stage models.Stage, now time.Time) bool {
	return now.After(stage.EffectiveDeadline())
}

// CheckCreate decides whether a new submission may be created at now and whether it
// is late.
func CheckCreate(stage models.Stage, now time.Time) (bool, error) {
	if !stage.RequiresSubmission {
		return false, Invalid("this stage does not accept submissions")
	}
	if !stage.IsActive {
		return false, Invalid("stage is not active")
	}
	late := deadlinePassed(stage, now)
	if late && !stage.AllowLateSubmission {
		return false, Invalid("submission deadline has passed")
	}
	return late, nil
}

// CheckAuthorEdit guards content edits by the author.
func CheckAuthorEdit(stage models.Stage, sub models.Submission, now time.Time) error {
	if sub.Status.IsJudged() {
		return Invalid("submission has already been reviewed and can no longer be edited")
	}
	if deadlinePassed(stage, now) && !stage.AllowLateSubmission {
		return Invalid("submission deadline has passed")
	}
	return nil
}

func CheckAuthorDelete(sub models.Submission) error {
	if sub.Status.IsJudged() {
		return Invalid("reviewed submissions can only be removed by organizers")
	}
	return nil
}

// IsAuthor reports whether userID owns sub, either directly or through team.
func IsAuthor(sub models.Submission, userID string, team *models.TeamMember) bool {
	if sub.UserID != nil && *sub.UserID == userID {
		return true
	}
	return sub.TeamID != nil && team != nil && team.TeamID == *sub.TeamID
}

// ReviewInput is the organizer-side update. Every field is optional.
type ReviewInput struct {
	Status      *models.SubmissionStatus `json:"status" validate:"omitempty,oneof=SUBMITTED APPROVED REJECTED"`
	Score       *float64                 `json:"score" validate:"omitempty,gte=0"`
	Feedback    *string                  `json:"feedback" validate:"omitempty,max=5000"`
	Title       *string                  `json:"title" validate:"omitempty,max=200"`
	Description *string                  `json:"description" validate:"omitempty,max=5000"`
	Content     *string                  `json:"content" validate:"omitempty,max=20000"`
	RepoURL     *string                  `json:"repo_url" validate:"omitempty,http_url"`
	DemoURL     *string                  `json:"demo_url" validate:"omitempty,http_url"`
	FileURL     *string                  `json:"file_url" validate:"omitempty,http_url"`
	Links       []string                 `json:"links" validate:"omitempty,max=20,dive,http_url"`
	Attachments []AttachmentInput        `json:"attachments" validate:"omitempty,max=20,dive"`
}

func (in ReviewInput) Validate() error {
	if err := utils.ValidateStruct(in); err != nil {
		return Invalid(utils.FormatValidationErrors(err))
	}
	return nil
}

// ApplyReview mutates sub and reports whether the review status changed.
func ApplyReview(sub *models.Submission, in ReviewInput, reviewer string, now time.Time) bool {
	statusChanged := false
	if in.Status != nil && *in.Status != sub.Status {
		sub.Status = *in.Status
		statusChanged = true
	}
	if in.Score != nil {
		score := *in.Score
		sub.Score = &score
	}
	if in.Feedback != nil {
		fb := *in.Feedback
		sub.Feedback = &fb
	}
	if in.Title != nil {
		sub.Title = *in.Title
	}
	if in.Description != nil {
		sub.Description = *in.Description
	}
	if in.Content != nil {
		sub.Content = *in.Content
	}
	if in.RepoURL != nil {
		sub.RepoURL = *in.RepoURL
	}
	if in.DemoURL != nil {
		sub.DemoURL = *in.DemoURL
	}
	if in.FileURL != nil {
		sub.FileURL = *in.FileURL
	}
	if in.Links != nil {
		sub.Links = datatypes.JSONSlice[string](append([]string(nil), in.Links...))
	}
	if in.Attachments != nil {
		attachments := make([]models.Attachment, 0, len(in.Attachments))
		for _, a := range in.Attachments {
			attachments = append(attachments, models.Attachment{Name: a.Name, URL: a.URL, ContentType: a.ContentType})
		}
		sub.Attachments = datatypes.JSONSlice[models.Attachment](attachments)
	}
	r := reviewer
	reviewedAt := now
	sub.ReviewedBy = &r
	sub.ReviewedAt = &reviewedAt
	return statusChanged
}
