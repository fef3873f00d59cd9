package models

import (
	"time"

	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionApproved  SubmissionStatus = "APPROVED"
	SubmissionRejected  SubmissionStatus = "REJECTED"
)

// IsJudged reports whether the submission reached a terminal review outcome.
func (s SubmissionStatus) IsJudged() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

type Attachment struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
}

// Submission is a participant's (or team's) deliverable for a stage. AuthorKey is
// "user:<id>" or "team:<id>" and is unique per stage.
type Submission struct {
	ID          string           `json:"id" gorm:"primaryKey"`
	StageID     string           `json:"stage_id" gorm:"not null;uniqueIndex:idx_submission_author"`
	HackathonID string           `json:"hackathon_id" gorm:"not null;index"`
	AuthorKey   string           `json:"author_key" gorm:"not null;uniqueIndex:idx_submission_author"`
	UserID      *string          `json:"user_id,omitempty" gorm:"index"`
	TeamID      *string          `json:"team_id,omitempty" gorm:"index"`
	SubmittedBy string           `json:"submitted_by" gorm:"not null"`
	Status      SubmissionStatus `json:"status" gorm:"type:varchar(16);not null;default:'SUBMITTED'"`

	Title       string                          `json:"title" gorm:"not null"`
	Description string                          `json:"description" gorm:"type:text"`
	Content     string                          `json:"content" gorm:"type:text"`
	RepoURL     string                          `json:"repo_url,omitempty"`
	DemoURL     string                          `json:"demo_url,omitempty"`
	FileURL     string                          `json:"file_url,omitempty"`
	Links       datatypes.JSONSlice[string]     `json:"links"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`

	IsLate      bool       `json:"is_late" gorm:"default:false"`
	Score       *float64   `json:"score,omitempty"`
	Feedback    *string    `json:"feedback,omitempty" gorm:"type:text"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at" gorm:"not null"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func UserAuthorKey(userID string) string { return "user:" + userID }
func TeamAuthorKey(teamID string) string { return "team:" + teamID }
