package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
)

type SubmissionHit struct {
	ID     string        `json:"id"`
	Score  float64       `json:"relevance"`
	Source SubmissionDoc `json:"submission"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string        `json:"_id"`
			Score  float64       `json:"_score"`
			Source SubmissionDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// BuildSubmissionQuery restricts matches to one hackathon and searches both the raw
// and the folded text fields.
func BuildSubmissionQuery(hackathonID, q string, size int) map[string]any {
	return map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"hackathon_id": hackathonID}},
				},
				"must": []any{
					map[string]any{"multi_match": map[string]any{
						"query":  q + " " + Fold(q),
						"fields": []string{"title^3", "description^2", "content", "search_text"},
					}},
				},
			},
		},
	}
}

func SearchSubmissions(ctx context.Context, c *es.Client, hackathonID, q string, size int) ([]SubmissionHit, error) {
	body, err := json.Marshal(BuildSubmissionQuery(hackathonID, q, size))
	if err != nil {
		return nil, err
	}
	res, err := c.Search(
		c.Search.WithContext(ctx),
		c.Search.WithIndex(IdxSubmissions),
		c.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", IdxSubmissions, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", IdxSubmissions, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	hits := make([]SubmissionHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, SubmissionHit{ID: h.ID, Score: h.Score, Source: h.Source})
	}
	return hits, nil
}
