// workers/repo.go
package workers

import (
	"context"
	"log"
	"time"

	"hackathon-platform/metrics"
	"hackathon-platform/models"

	"gorm.io/gorm"
)

type OutboxBatch struct{ Events []models.OutboxEvent }

// FetchOutboxBatch claims up to limit unprocessed events. On Postgres the claim uses
// FOR UPDATE SKIP LOCKED so several instances can drain the outbox concurrently.
func FetchOutboxBatch(ctx context.Context, db *gorm.DB, limit int) (OutboxBatch, error) {
	var evts []models.OutboxEvent
	if db.Dialector.Name() == "postgres" {
		tx := db.WithContext(ctx).Raw(`
			WITH cte AS (
			  SELECT id FROM outbox_events
			  WHERE processed = false
			  ORDER BY id ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED
			)
			UPDATE outbox_events SET processed = true, processed_at = NOW(), attempts = outbox_events.attempts + 1
			FROM cte
			WHERE outbox_events.id = cte.id
			RETURNING outbox_events.*`, limit).Scan(&evts)
		return OutboxBatch{Events: evts}, tx.Error
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("processed = ?", false).Order("id ASC").Limit(limit).Find(&evts).Error; err != nil {
			return err
		}
		if len(evts) == 0 {
			return nil
		}
		ids := make([]int64, len(evts))
		for i, e := range evts {
			ids[i] = e.ID
		}
		return tx.Model(&models.OutboxEvent{}).Where("id IN ?", ids).Updates(map[string]any{
			"processed":    true,
			"processed_at": time.Now(),
			"attempts":     gorm.Expr("attempts + 1"),
		}).Error
	})
	return OutboxBatch{Events: evts}, err
}

// PutDLQ inserts a failed outbox event into the delivery failure table.
func PutDLQ(db *gorm.DB, ob models.OutboxEvent, msg string) {
	metrics.DLQEvents.Inc()
	dlq := models.DeliveryFailure{
		OutboxID:  ob.ID,
		EventType: ob.EventType,
		EntityID:  ob.EntityID,
		ErrorMsg:  msg,
		Payload:   ob.Payload,
		CreatedAt: time.Now(),
		Resolved:  false,
	}
	if err := db.Create(&dlq).Error; err != nil {
		log.Printf("❌ Failed to insert into DLQ: %v", err)
	} else {
		log.Printf("💀 DLQ record created for outbox_id=%d", ob.ID)
	}
}
