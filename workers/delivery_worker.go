// workers/delivery_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"hackathon-platform/elastic"
	"hackathon-platform/metrics"
	"hackathon-platform/models"
	"hackathon-platform/utils"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"gorm.io/gorm"
)

// DeliveryWorker drains the outbox: notification and status events go to the notify
// webhook, meeting link requests to the conferencing webhook, and submission changes
// into the search index. Undeliverable events land in delivery_failures.
type DeliveryWorker struct {
	DB             *gorm.DB
	ES             *es.Client
	NotifyURL      string
	MeetingLinkURL string
	ServiceToken   string
	Interval       time.Duration
	BatchSize      int
}

// webhookEnvelope is the body posted to webhooks.
type webhookEnvelope struct {
	EventType string          `json:"event_type"`
	EntityID  string          `json:"entity_id"`
	Payload   json.RawMessage `json:"payload"`
}

type meetingLinkResponse struct {
	MeetingLink string `json:"meeting_link"`
}

func (w *DeliveryWorker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Second
	}
	log.Println("📮 Starting outbox delivery worker…")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Outbox delivery worker stopped")
			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				log.Printf("worker error: %v", err)
			}
		}
	}
}

// ProcessOnce delivers one batch and returns how many events were claimed.
func (w *DeliveryWorker) ProcessOnce(ctx context.Context) (int, error) {
	size := w.BatchSize
	if size <= 0 {
		size = 200
	}
	batch, err := FetchOutboxBatch(ctx, w.DB, size)
	if err != nil {
		return 0, err
	}
	if len(batch.Events) == 0 {
		return 0, nil
	}

	bi, err := w.newBulkIndexer()
	if err != nil {
		return 0, err
	}

	for _, e := range batch.Events {
		if err := w.applyEvent(ctx, bi, e); err != nil {
			// already marked processed; the DLQ retry loop owns it from here
			metrics.FailedEvents.Inc()
			PutDLQ(w.DB, e, err.Error())
			log.Printf("DLQ outbox_id=%d: %v", e.ID, err)
			continue
		}
		metrics.ProcessedEvents.Inc()
	}

	if bi != nil {
		if err := bi.Close(ctx); err != nil {
			return len(batch.Events), err
		}
		stats := bi.Stats()
		log.Printf("bulk ok=%d failed=%d", stats.NumFlushed, stats.NumFailed)
	}
	return len(batch.Events), nil
}

func (w *DeliveryWorker) newBulkIndexer() (esutil.BulkIndexer, error) {
	if w.ES == nil {
		return nil, nil
	}
	return esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: w.ES, Index: "", FlushBytes: 5 << 20, NumWorkers: 2,
	})
}

func (w *DeliveryWorker) applyEvent(ctx context.Context, bi esutil.BulkIndexer, e models.OutboxEvent) error {
	switch e.EventType {
	case models.EventNotificationCreated, models.EventHackathonStatus, models.EventMeetingCancelled:
		return w.notify(ctx, e)

	case models.EventMeetingLinkRequested:
		return w.requestMeetingLink(ctx, e)

	case models.EventSubmissionUpserted:
		if bi == nil {
			return nil
		}
		var sub models.Submission
		if err := w.DB.WithContext(ctx).First(&sub, "id = ?", e.EntityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// deleted since; its delete event removes the document
				return nil
			}
			return err
		}
		doc, err := elastic.BuildSubmissionDoc(sub)
		if err != nil {
			return err
		}
		return w.add(bi, e, "index", doc)

	case models.EventSubmissionDeleted:
		if bi == nil {
			return nil
		}
		return w.add(bi, e, "delete", nil)
	}
	return fmt.Errorf("unknown event_type=%s", e.EventType)
}

func (w *DeliveryWorker) notify(ctx context.Context, e models.OutboxEvent) error {
	if w.NotifyURL == "" {
		return nil
	}
	return utils.PostJSON(ctx, w.NotifyURL, w.ServiceToken, envelopeOf(e), nil)
}

func (w *DeliveryWorker) requestMeetingLink(ctx context.Context, e models.OutboxEvent) error {
	if w.MeetingLinkURL == "" {
		return nil
	}
	var out meetingLinkResponse
	if err := utils.PostJSON(ctx, w.MeetingLinkURL, w.ServiceToken, envelopeOf(e), &out); err != nil {
		return err
	}
	if out.MeetingLink == "" {
		return errors.New("meeting link webhook returned no meeting_link")
	}
	// a link set by the host meanwhile wins
	return w.DB.WithContext(ctx).Model(&models.Meeting{}).
		Where("id = ? AND (meeting_link = '' OR meeting_link IS NULL)", e.EntityID).
		Update("meeting_link", out.MeetingLink).Error
}

func envelopeOf(e models.OutboxEvent) webhookEnvelope {
	payload := json.RawMessage(e.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return webhookEnvelope{EventType: e.EventType, EntityID: e.EntityID, Payload: payload}
}

func (w *DeliveryWorker) add(bi esutil.BulkIndexer, e models.OutboxEvent, action string, body []byte) error {
	item := esutil.BulkIndexerItem{
		Action:     action,
		DocumentID: e.EntityID,
		Index:      elastic.IdxSubmissions,
		OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
			log.Printf("✅ synced %s id=%s", elastic.IdxSubmissions, e.EntityID)
		},
		OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			if err == nil && action == "delete" && res.Status == http.StatusNotFound {
				return
			}
			msg := ""
			switch {
			case err != nil:
				msg = err.Error()
			case res.Error.Reason != "":
				msg = fmt.Sprintf("%s: %s", res.Error.Type, res.Error.Reason)
			default:
				msg = fmt.Sprintf("status=%d failed to index", res.Status)
			}
			PutDLQ(w.DB, e, msg)
			log.Printf("💀 DLQ created for outbox_id=%d index=%s id=%s reason=%s", e.ID, elastic.IdxSubmissions, e.EntityID, msg)
		},
	}
	if len(body) > 0 {
		item.Body = bytes.NewReader(body)
	}
	return bi.Add(context.Background(), item)
}
