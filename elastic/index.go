package elastic

import (
	"bytes"
	"context"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
)

const IdxSubmissions = "submissions_v1"

func EnsureIndexes(ctx context.Context, c *es.Client) error {
	mapping := `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"hackathon_id":{"type":"keyword"},"stage_id":{"type":"keyword"},"author_key":{"type":"keyword"},
		"status":{"type":"keyword"},"title":{"type":"text"},"description":{"type":"text"},
		"content":{"type":"text"},"search_text":{"type":"text"},"links":{"type":"keyword"},
		"is_late":{"type":"boolean"},"score":{"type":"float"},"submitted_at":{"type":"date"}
	}}}`
	return ensure(ctx, c, IdxSubmissions, mapping)
}

func ensure(ctx context.Context, c *es.Client, index, body string) error {
	exists, err := c.Indices.Exists([]string{index}, c.Indices.Exists.WithContext(ctx))
	if err == nil {
		defer exists.Body.Close()
		if exists.StatusCode == 200 {
			return nil
		}
	}
	res, err := c.Indices.Create(index, c.Indices.Create.WithBody(bytes.NewBufferString(body)), c.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
