package workers

import (
	"context"
	"log"
	"time"

	"hackathon-platform/metrics"
	"hackathon-platform/models"
)

func (w *DeliveryWorker) RetryDLQ(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RetryOnce(ctx); err != nil {
				log.Printf("DLQ fetch error: %v", err)
			}
		}
	}
}

// RetryOnce re-applies unresolved delivery failures and returns how many resolved.
func (w *DeliveryWorker) RetryOnce(ctx context.Context) (int, error) {
	var dlqs []models.DeliveryFailure
	if err := w.DB.WithContext(ctx).Where("resolved = ?", false).Order("id ASC").Limit(50).Find(&dlqs).Error; err != nil {
		return 0, err
	}
	if len(dlqs) == 0 {
		return 0, nil
	}

	bi, err := w.newBulkIndexer()
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, d := range dlqs {
		log.Printf("♻️ Retrying DLQ id=%d event=%s entity=%s", d.ID, d.EventType, d.EntityID)
		ob := models.OutboxEvent{
			ID:        d.OutboxID,
			EventType: d.EventType,
			EntityID:  d.EntityID,
			Payload:   d.Payload,
		}
		now := time.Now()
		if err := w.applyEvent(ctx, bi, ob); err != nil {
			w.DB.Model(&models.DeliveryFailure{}).Where("id = ?", d.ID).Updates(map[string]any{
				"retried_at": &now,
				"error_msg":  err.Error(),
			})
			continue
		}
		w.DB.Model(&models.DeliveryFailure{}).Where("id = ?", d.ID).Updates(map[string]any{
			"resolved":   true,
			"retried_at": &now,
		})
		metrics.ProcessedEvents.Inc()
		resolved++
		log.Printf("✅ DLQ id=%d resolved", d.ID)
	}

	if bi != nil {
		if err := bi.Close(ctx); err != nil {
			return resolved, err
		}
	}
	return resolved, nil
}
