package elastic

import (
	"encoding/json"
	"strings"
	"time"

	"hackathon-platform/models"

	"github.com/gosimple/unidecode"
)

type SubmissionDoc struct {
	HackathonID string    `json:"hackathon_id"`
	StageID     string    `json:"stage_id"`
	AuthorKey   string    `json:"author_key"`
	Status      string    `json:"status"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	SearchText  string    `json:"search_text"`
	Links       []string  `json:"links"`
	IsLate      bool      `json:"is_late"`
	Score       *float64  `json:"score,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func BuildSubmissionDoc(s models.Submission) ([]byte, error) {
	links := []string(s.Links)
	if links == nil {
		links = []string{}
	}
	return json.Marshal(SubmissionDoc{
		HackathonID: s.HackathonID,
		StageID:     s.StageID,
		AuthorKey:   s.AuthorKey,
		Status:      string(s.Status),
		Title:       s.Title,
		Description: s.Description,
		Content:     s.Content,
		SearchText:  Fold(s.Title + " " + s.Description + " " + s.Content),
		Links:       links,
		IsLate:      s.IsLate,
		Score:       s.Score,
		SubmittedAt: s.SubmittedAt,
	})
}

// Fold transliterates to lower-case ASCII so "Café Über" matches "cafe uber".
func Fold(text string) string {
	return strings.ToLower(unidecode.Unidecode(text))
}
