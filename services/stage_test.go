package services

import (
	"testing"
	"time"

	"hackathon-platform/models"
)

func scored(id string, score float64, minute int) models.Submission {
	s := score
	return models.Submission{
		ID:          id,
		Status:      models.SubmissionApproved,
		Score:       &s,
		SubmittedAt: time.Date(2024, 6, 1, 0, minute, 0, 0, time.UTC),
	}
}

func eliminationStage(kind models.EliminationType, value float64) models.Stage {
	return models.Stage{IsElimination: true, EliminationType: &kind, EliminationValue: &value}
}

func ids(list []models.Submission) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyElimination(t *testing.T) {
	subs := []models.Submission{
		scored("a", 7, 1),
		scored("b", 9, 2),
		scored("c", 7, 0),
		{ID: "unscored", Status: models.SubmissionSubmitted},
		scored("d", 3, 3),
	}
	tests := []struct {
		name      string
		stage     models.Stage
		advancing []string
	}{
		{"top n with tie broken by time", eliminationStage(models.EliminationTopN, 2), []string{"b", "c"}},
		{"top n larger than field", eliminationStage(models.EliminationTopN, 10), []string{"b", "c", "a", "d"}},
		{"percentage rounds up", eliminationStage(models.EliminationPercentage, 50), []string{"b", "c", "a"}},
		{"score threshold inclusive", eliminationStage(models.EliminationScoreThreshold, 7), []string{"b", "c", "a"}},
		{"zero keeps nobody", eliminationStage(models.EliminationTopN, 0), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ApplyElimination(tt.stage, subs)
			if got := ids(res.Advancing); !equalIDs(got, tt.advancing) {
				t.Fatalf("advancing = %v, want %v", got, tt.advancing)
			}
			if len(res.Advancing)+len(res.Eliminated) != len(subs) {
				t.Fatalf("lost submissions: %d + %d", len(res.Advancing), len(res.Eliminated))
			}
		})
	}
}

func TestApplyEliminationNonEliminationStage(t *testing.T) {
	subs := []models.Submission{{ID: "x"}, {ID: "y"}}
	res := ApplyElimination(models.Stage{}, subs)
	if len(res.Advancing) != 2 || len(res.Eliminated) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestStageInputValidate(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	in := StageInput{Name: "Build", Type: models.StageTypeDevelopment, StartDate: start, EndDate: start.Add(time.Hour)}
	if err := in.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	bad := in
	bad.EndDate = start.Add(-time.Hour)
	assertKind(t, bad.Validate(), KindValidation)

	bad = in
	bad.Type = "HACKING"
	assertKind(t, bad.Validate(), KindValidation)

	bad = in
	bad.IsElimination = true
	assertKind(t, bad.Validate(), KindValidation)

	pct := models.EliminationPercentage
	v := 150.0
	bad.EliminationType, bad.EliminationValue = &pct, &v
	assertKind(t, bad.Validate(), KindValidation)
}
