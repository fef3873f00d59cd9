package models

import "time"

type MeetingType string

const (
	MeetingTypeMentoring    MeetingType = "MENTORING"
	MeetingTypeEvaluation   MeetingType = "EVALUATION"
	MeetingTypePresentation MeetingType = "PRESENTATION"
)

type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "SCHEDULED"
	MeetingConfirmed MeetingStatus = "CONFIRMED"
	MeetingCompleted MeetingStatus = "COMPLETED"
	MeetingCancelled MeetingStatus = "CANCELLED"
)

// Meeting is a mentor or judge session. Meetings are cancelled, never deleted.
type Meeting struct {
	ID              string        `json:"id" gorm:"primaryKey"`
	HackathonID     string        `json:"hackathon_id" gorm:"not null;index"`
	HostID          string        `json:"host_id" gorm:"not null;index:idx_meeting_host_time"`
	TeamID          *string       `json:"team_id,omitempty" gorm:"index"`
	Title           string        `json:"title" gorm:"not null"`
	Description     string        `json:"description" gorm:"type:text"`
	Type            MeetingType   `json:"type" gorm:"type:varchar(16);not null;default:'MENTORING'"`
	ScheduledAt     time.Time     `json:"scheduled_at" gorm:"not null;index:idx_meeting_host_time"`
	EndTime         time.Time     `json:"end_time" gorm:"not null"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          MeetingStatus `json:"status" gorm:"type:varchar(16);not null;default:'SCHEDULED'"`
	MeetingLink     string        `json:"meeting_link,omitempty"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
	CancelReason    string        `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}
