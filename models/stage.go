package models

import (
	"time"
)

type StageType string

const (
	StageTypeRegistration     StageType = "REGISTRATION"
	StageTypeTeamFormation    StageType = "TEAM_FORMATION"
	StageTypeIdeation         StageType = "IDEATION"
	StageTypeMentoringSession StageType = "MENTORING_SESSION"
	StageTypeCheckpoint       StageType = "CHECKPOINT"
	StageTypeDevelopment      StageType = "DEVELOPMENT"
	StageTypeEvaluation       StageType = "EVALUATION"
	StageTypePresentation     StageType = "PRESENTATION"
	StageTypeResults          StageType = "RESULTS"
	StageTypeCustom           StageType = "CUSTOM"
)

type EliminationType string

const (
	EliminationTopN           EliminationType = "TOP_N"
	EliminationPercentage     EliminationType = "PERCENTAGE"
	EliminationScoreThreshold EliminationType = "SCORE_THRESHOLD"
)

// Stage is one phase of a hackathon pipeline. Stages are ordered by Order, which is
// stored as sort_order ("order" is reserved in SQL).
type Stage struct {
	ID                  string           `json:"id" gorm:"primaryKey"`
	HackathonID         string           `json:"hackathon_id" gorm:"not null;uniqueIndex:idx_stage_order"`
	Name                string           `json:"name" gorm:"not null"`
	Description         string           `json:"description" gorm:"type:text"`
	Order               int              `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_stage_order"`
	Type                StageType        `json:"type" gorm:"type:varchar(32);not null;default:'CUSTOM'"`
	StartDate           time.Time        `json:"start_date" gorm:"not null"`
	EndDate             time.Time        `json:"end_date" gorm:"not null"`
	IsActive            bool             `json:"is_active" gorm:"default:false"`
	IsCompleted         bool             `json:"is_completed" gorm:"default:false"`
	SubmissionDeadline  *time.Time       `json:"submission_deadline,omitempty"`
	AllowLateSubmission bool             `json:"allow_late_submission" gorm:"default:false"`
	RequiresSubmission  bool             `json:"requires_submission" gorm:"default:false"`
	IsTeamBased         bool             `json:"is_team_based" gorm:"default:false"`
	IsElimination       bool             `json:"is_elimination" gorm:"default:false"`
	EliminationType     *EliminationType `json:"elimination_type,omitempty" gorm:"type:varchar(32)"`
	EliminationValue    *float64         `json:"elimination_value,omitempty"`
	CreatedAt           time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// EffectiveDeadline is SubmissionDeadline when set, otherwise EndDate.
func (s Stage) EffectiveDeadline() time.Time {
	if s.SubmissionDeadline != nil {
		return *s.SubmissionDeadline
	}
	return s.EndDate
}
