package services

import (
	"math"
	"sort"
	"time"

	"hackathon-platform/models"
	"hackathon-platform/utils"
)

type StageInput struct {
	Name                string                  `json:"name" validate:"required,max=120"`
	Description         string                  `json:"description" validate:"max=5000"`
	Order               int                     `json:"order" validate:"gte=0"`
	Type                models.StageType        `json:"type" validate:"required,oneof=REGISTRATION TEAM_FORMATION IDEATION MENTORING_SESSION CHECKPOINT DEVELOPMENT EVALUATION PRESENTATION RESULTS CUSTOM"`
	StartDate           time.Time               `json:"start_date" validate:"required"`
	EndDate             time.Time               `json:"end_date" validate:"required"`
	IsActive            bool                    `json:"is_active"`
	SubmissionDeadline  *time.Time              `json:"submission_deadline"`
	AllowLateSubmission bool                    `json:"allow_late_submission"`
	RequiresSubmission  bool                    `json:"requires_submission"`
	IsTeamBased         bool                    `json:"is_team_based"`
	IsElimination       bool                    `json:"is_elimination"`
	EliminationType     *models.EliminationType `json:"elimination_type" validate:"omitempty,oneof=TOP_N PERCENTAGE SCORE_THRESHOLD"`
	EliminationValue    *float64                `json:"elimination_value" validate:"omitempty,gte=0"`
}

func (in StageInput) Validate() error {
	if err := utils.ValidateStruct(in); err != nil {
		return Invalid(utils.FormatValidationErrors(err))
	}
	if in.EndDate.Before(in.StartDate) {
		return Invalid("end_date must not be before start_date")
	}
	if in.IsElimination {
		if in.EliminationType == nil || in.EliminationValue == nil {
			return Invalid("elimination stages need elimination_type and elimination_value")
		}
		if *in.EliminationType == models.EliminationPercentage && *in.EliminationValue > 100 {
			return Invalid("elimination percentage must be at most 100")
		}
	}
	return nil
}

func (in StageInput) ApplyTo(st *models.Stage) {
	st.Name = in.Name
	st.Description = in.Description
	st.Order = in.Order
	st.Type = in.Type
	st.StartDate = in.StartDate
	st.EndDate = in.EndDate
	st.IsActive = in.IsActive
	st.SubmissionDeadline = in.SubmissionDeadline
	st.AllowLateSubmission = in.AllowLateSubmission
	st.RequiresSubmission = in.RequiresSubmission
	st.IsTeamBased = in.IsTeamBased
	st.IsElimination = in.IsElimination
	st.EliminationType = in.EliminationType
	st.EliminationValue = in.EliminationValue
	if !in.IsElimination {
		st.EliminationType = nil
		st.EliminationValue = nil
	}
}

// EliminationResult splits a stage's submissions into those that advance and those
// that are cut.
type EliminationResult struct {
	Advancing  []models.Submission `json:"advancing"`
	Eliminated []models.Submission `json:"eliminated"`
}

// ApplyElimination ranks scored submissions (score desc, earlier submission first on
// ties) and applies the stage's elimination rule. Unscored and rejected submissions
// never advance on an elimination stage.
func ApplyElimination(stage models.Stage, subs []models.Submission) EliminationResult {
	if !stage.IsElimination || stage.EliminationType == nil || stage.EliminationValue == nil {
		return EliminationResult{Advancing: subs, Eliminated: []models.Submission{}}
	}

	var ranked, out []models.Submission
	for _, s := range subs {
		if s.Score == nil || s.Status == models.SubmissionRejected {
			out = append(out, s)
			continue
		}
		ranked = append(ranked, s)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].Score != *ranked[j].Score {
			return *ranked[i].Score > *ranked[j].Score
		}
		return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
	})

	value := *stage.EliminationValue
	keep := len(ranked)
	switch *stage.EliminationType {
	case models.EliminationTopN:
		keep = int(value)
	case models.EliminationPercentage:
		keep = int(math.Ceil(float64(len(subs)) * value / 100))
	case models.EliminationScoreThreshold:
		keep = 0
		for keep < len(ranked) && *ranked[keep].Score >= value {
			keep++
		}
	}
	keep = max(0, min(keep, len(ranked)))

	res := EliminationResult{
		Advancing:  append([]models.Submission{}, ranked[:keep]...),
		Eliminated: append(append([]models.Submission{}, ranked[keep:]...), out...),
	}
	return res
}
