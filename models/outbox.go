package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventNotificationCreated  = "notification.created"
	EventMeetingLinkRequested = "meeting.link_requested"
	EventMeetingCancelled     = "meeting.cancelled"
	EventSubmissionUpserted   = "submission.upserted"
	EventSubmissionDeleted    = "submission.deleted"
	EventHackathonStatus      = "hackathon.status_changed"
)

// OutboxEvent describes work for an external collaborator, written in the same
// transaction as the state change it belongs to.
type OutboxEvent struct {
	ID          int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	EventType   string         `json:"event_type" gorm:"index;not null"`
	EntityID    string         `json:"entity_id" gorm:"not null"`
	Payload     datatypes.JSON `json:"payload"`
	Processed   bool           `json:"processed" gorm:"default:false;index"`
	Attempts    int            `json:"attempts" gorm:"default:0"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}

// DeliveryFailure is the dead-letter record for outbox events that could not be delivered.
type DeliveryFailure struct {
	ID        int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OutboxID  int64          `json:"outbox_id" gorm:"index"`
	EventType string         `json:"event_type"`
	EntityID  string         `json:"entity_id"`
	ErrorMsg  string         `json:"error_msg" gorm:"type:text"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	RetriedAt *time.Time     `json:"retried_at,omitempty"`
	Resolved  bool           `json:"resolved" gorm:"default:false;index"`
}
