package services

import (
	"encoding/json"
	"log"

	"hackathon-platform/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AddOutboxEvent records work for an external collaborator inside tx, so it commits
// or rolls back together with the state change that caused it.
func AddOutboxEvent(tx *gorm.DB, eventType, entityID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := models.OutboxEvent{
		EventType: eventType,
		EntityID:  entityID,
		Payload:   datatypes.JSON(data),
	}
	if err := tx.Create(&event).Error; err != nil {
		log.Printf("❌ Failed to create outbox event %s for %s: %v", eventType, entityID, err)
		return err
	}
	return nil
}

// AddNotificationEvents enqueues delivery for each notification.
func AddNotificationEvents(tx *gorm.DB, notifications []models.Notification) error {
	for _, n := range notifications {
		if err := AddOutboxEvent(tx, models.EventNotificationCreated, n.ID, n); err != nil {
			return err
		}
	}
	if len(notifications) > 0 {
		log.Printf("📦 %d notification delivery events queued", len(notifications))
	}
	return nil
}
