package services

import (
	"errors"
	"testing"
	"time"

	"hackathon-platform/models"

	"gorm.io/datatypes"
)

func activeStage(deadline time.Time, allowLate bool) models.Stage {
	return models.Stage{
		ID:                  "st1",
		HackathonID:         "h1",
		StartDate:           deadline.Add(-72 * time.Hour),
		EndDate:             deadline,
		IsActive:            true,
		RequiresSubmission:  true,
		AllowLateSubmission: allowLate,
	}
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %v", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("kind = %d, want %d (%s)", appErr.Kind, kind, appErr.Message)
	}
}

func TestCheckCreateLateFlag(t *testing.T) {
	deadline := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	late, err := CheckCreate(activeStage(deadline, false), deadline.Add(-time.Second))
	if err != nil || late {
		t.Fatalf("one second early: late=%v err=%v", late, err)
	}

	late, err = CheckCreate(activeStage(deadline, false), deadline)
	if err != nil || late {
		t.Fatalf("exactly at deadline: late=%v err=%v", late, err)
	}

	_, err = CheckCreate(activeStage(deadline, false), deadline.Add(time.Second))
	assertKind(t, err, KindValidation)

	late, err = CheckCreate(activeStage(deadline, true), deadline.Add(time.Second))
	if err != nil || !late {
		t.Fatalf("late allowed: late=%v err=%v", late, err)
	}
}

func TestCheckCreateUsesExplicitDeadline(t *testing.T) {
	end := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	st := activeStage(end, false)
	explicit := end.Add(-48 * time.Hour)
	st.SubmissionDeadline = &explicit

	_, err := CheckCreate(st, explicit.Add(time.Minute))
	assertKind(t, err, KindValidation)
}

func TestCheckCreateStagePolicy(t *testing.T) {
	deadline := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	now := deadline.Add(-time.Hour)

	st := activeStage(deadline, false)
	st.RequiresSubmission = false
	_, err := CheckCreate(st, now)
	assertKind(t, err, KindValidation)

	st = activeStage(deadline, false)
	st.IsActive = false
	_, err = CheckCreate(st, now)
	assertKind(t, err, KindValidation)
}

func TestCheckAuthorEdit(t *testing.T) {
	deadline := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	sub := models.Submission{Status: models.SubmissionSubmitted}

	if err := CheckAuthorEdit(activeStage(deadline, false), sub, deadline); err != nil {
		t.Fatalf("edit at deadline: %v", err)
	}
	assertKind(t, CheckAuthorEdit(activeStage(deadline, false), sub, deadline.Add(time.Second)), KindValidation)
	if err := CheckAuthorEdit(activeStage(deadline, true), sub, deadline.Add(time.Hour)); err != nil {
		t.Fatalf("late edit allowed: %v", err)
	}

	for _, judged := range []models.SubmissionStatus{models.SubmissionApproved, models.SubmissionRejected} {
		sub.Status = judged
		assertKind(t, CheckAuthorEdit(activeStage(deadline, true), sub, deadline.Add(-time.Hour)), KindValidation)
		assertKind(t, CheckAuthorDelete(sub), KindValidation)
	}
}

func TestResolveAuthor(t *testing.T) {
	st := models.Stage{}
	a, err := ResolveAuthor(st, "u1", nil)
	if err != nil || a.Key != "user:u1" || a.UserID == nil || a.TeamID != nil {
		t.Fatalf("individual author = %+v, %v", a, err)
	}

	st.IsTeamBased = true
	_, err = ResolveAuthor(st, "u1", nil)
	assertKind(t, err, KindValidation)

	a, err = ResolveAuthor(st, "u1", &models.TeamMember{TeamID: "t9", UserID: "u1"})
	if err != nil || a.Key != "team:t9" || a.TeamID == nil || a.UserID != nil {
		t.Fatalf("team author = %+v, %v", a, err)
	}
}

func TestIsAuthor(t *testing.T) {
	uid, tid := "u1", "t1"
	own := models.Submission{UserID: &uid}
	team := models.Submission{TeamID: &tid}

	if !IsAuthor(own, "u1", nil) || IsAuthor(own, "u2", nil) {
		t.Error("individual ownership")
	}
	if !IsAuthor(team, "u2", &models.TeamMember{TeamID: "t1"}) {
		t.Error("any team member is an author")
	}
	if IsAuthor(team, "u3", &models.TeamMember{TeamID: "t2"}) || IsAuthor(team, "u3", nil) {
		t.Error("other teams are not authors")
	}
}

func TestSubmissionContentValidate(t *testing.T) {
	ok := SubmissionContent{Title: "Demo", RepoURL: "https://github.com/x/y", Links: []string{"http://a.test"}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid content rejected: %v", err)
	}
	bad := SubmissionContent{Title: "Demo", RepoURL: "github.com/x/y"}
	assertKind(t, bad.Validate(), KindValidation)
	assertKind(t, SubmissionContent{}.Validate(), KindValidation)
}

func TestApplyReview(t *testing.T) {
	now := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	sub := models.Submission{Status: models.SubmissionSubmitted, Title: "old"}
	approved := models.SubmissionApproved
	score := 9.0
	title := "new"

	changed := ApplyReview(&sub, ReviewInput{Status: &approved, Score: &score, Title: &title}, "org1", now)
	if !changed {
		t.Fatal("expected status change")
	}
	if sub.Status != approved || *sub.Score != 9 || sub.Title != "new" || *sub.ReviewedBy != "org1" || !sub.ReviewedAt.Equal(now) {
		t.Fatalf("unexpected submission after review: %+v", sub)
	}
	if ApplyReview(&sub, ReviewInput{Status: &approved}, "org1", now) {
		t.Fatal("same status is not a change")
	}
}

func TestApplyReviewAttachments(t *testing.T) {
	now := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	sub := models.Submission{
		Status:      models.SubmissionSubmitted,
		Attachments: datatypes.JSONSlice[models.Attachment]{{Name: "old.pdf", URL: "https://cdn.test/old.pdf"}},
	}

	ApplyReview(&sub, ReviewInput{}, "org1", now)
	if len(sub.Attachments) != 1 {
		t.Fatalf("attachments dropped by a review without them: %+v", sub.Attachments)
	}

	in := ReviewInput{Attachments: []AttachmentInput{{Name: "slides.pdf", URL: "https://cdn.test/slides.pdf", ContentType: "application/pdf"}}}
	if err := in.Validate(); err != nil {
		t.Fatalf("valid attachments rejected: %v", err)
	}
	ApplyReview(&sub, in, "org1", now)
	if len(sub.Attachments) != 1 || sub.Attachments[0].Name != "slides.pdf" || sub.Attachments[0].ContentType != "application/pdf" {
		t.Fatalf("attachments not replaced: %+v", sub.Attachments)
	}

	ApplyReview(&sub, ReviewInput{Attachments: []AttachmentInput{}}, "org1", now)
	if len(sub.Attachments) != 0 {
		t.Fatalf("empty list should clear attachments: %+v", sub.Attachments)
	}

	bad := ReviewInput{Attachments: []AttachmentInput{{Name: "x", URL: "not a url"}}}
	assertKind(t, bad.Validate(), KindValidation)
}
