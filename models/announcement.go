package models

import "time"

// AnnouncementAudience defines who can see an announcement.
type AnnouncementAudience string

const (
	AudienceAll        AnnouncementAudience = "ALL"
	AudienceRegistered AnnouncementAudience = "REGISTERED"
	AudienceApproved   AnnouncementAudience = "APPROVED"
)

type Announcement struct {
	ID             string               `json:"id" gorm:"primaryKey"`
	HackathonID    string               `json:"hackathon_id" gorm:"not null;index"`
	AuthorID       string               `json:"author_id" gorm:"not null"`
	Title          string               `json:"title" gorm:"not null"`
	Content        string               `json:"content" gorm:"type:text"`
	TargetAudience AnnouncementAudience `json:"target_audience" gorm:"type:varchar(16);not null;default:'ALL'"`
	IsPinned       bool                 `json:"is_pinned" gorm:"default:false"`
	IsPublished    bool                 `json:"is_published" gorm:"default:false;index"`
	PublishAt      time.Time            `json:"publish_at" gorm:"not null"`
	ExpiresAt      *time.Time           `json:"expires_at,omitempty"`
	FannedOutAt    *time.Time           `json:"fanned_out_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time            `json:"updated_at" gorm:"autoUpdateTime"`
}

type NotificationType string

const (
	NotificationAnnouncement       NotificationType = "ANNOUNCEMENT"
	NotificationSubmissionReviewed NotificationType = "SUBMISSION_REVIEWED"
	NotificationMeetingScheduled   NotificationType = "MEETING_SCHEDULED"
	NotificationMeetingCancelled   NotificationType = "MEETING_CANCELLED"
)

// Notification is one recipient's copy of an event. Announcement notifications are
// unique per (announcement, user); other types leave AnnouncementID nil.
type Notification struct {
	ID             string           `json:"id" gorm:"primaryKey"`
	UserID         string           `json:"user_id" gorm:"not null;index;uniqueIndex:idx_notification_announcement_user"`
	HackathonID    string           `json:"hackathon_id" gorm:"not null;index"`
	AnnouncementID *string          `json:"announcement_id,omitempty" gorm:"uniqueIndex:idx_notification_announcement_user"`
	Type           NotificationType `json:"type" gorm:"type:varchar(32);not null"`
	Title          string           `json:"title" gorm:"not null"`
	Message        string           `json:"message" gorm:"type:text"`
	Link           string           `json:"link"`
	IsRead         bool             `json:"is_read" gorm:"default:false;index"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at" gorm:"autoCreateTime"`
}
