package elastic

import (
	"log"

	es "github.com/elastic/go-elasticsearch/v8"
)

// Connect returns nil when no address is configured; search features are then disabled.
func Connect(address string) *es.Client {
	if address == "" {
		log.Println("⚠️  ELASTIC_URL not set, submission search disabled")
		return nil
	}
	client, err := es.NewClient(es.Config{
		Addresses: []string{address},
	})
	if err != nil {
		log.Fatalf("❌ failed to connect to Elasticsearch: %v", err)
	}
	log.Println("✅ Connected to Elasticsearch")
	return client
}
