package elastic

import (
	"encoding/json"
	"testing"
	"time"

	"hackathon-platform/models"
)

func TestFold(t *testing.T) {
	if got := Fold("Café Über"); got != "cafe uber" {
		t.Fatalf("Fold = %q", got)
	}
}

func TestBuildSubmissionDoc(t *testing.T) {
	score := 8.5
	s := models.Submission{
		HackathonID: "h1",
		StageID:     "s1",
		AuthorKey:   models.TeamAuthorKey("t1"),
		Status:      models.SubmissionApproved,
		Title:       "Résumé Parser",
		Score:       &score,
		SubmittedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	raw, err := BuildSubmissionDoc(s)
	if err != nil {
		t.Fatalf("BuildSubmissionDoc: %v", err)
	}
	var doc SubmissionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.AuthorKey != "team:t1" || doc.Status != "APPROVED" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.SearchText != "resume parser  " {
		t.Errorf("SearchText = %q", doc.SearchText)
	}
	if doc.Links == nil {
		t.Error("Links should encode as an empty array")
	}
}

func TestBuildSubmissionQueryFiltersHackathon(t *testing.T) {
	q := BuildSubmissionQuery("h1", "Ünicode", 20)
	raw, _ := json.Marshal(q)
	var decoded struct {
		Size  int `json:"size"`
		Query struct {
			Bool struct {
				Filter []struct {
					Term map[string]string `json:"term"`
				} `json:"filter"`
			} `json:"bool"`
		} `json:"query"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Size != 20 {
		t.Errorf("size = %d", decoded.Size)
	}
	if len(decoded.Query.Bool.Filter) != 1 || decoded.Query.Bool.Filter[0].Term["hackathon_id"] != "h1" {
		t.Errorf("filter = %+v", decoded.Query.Bool.Filter)
	}
}
