package models

import (
	"time"
)

// UserProfile is a local snapshot of identity-service profile data, used to attach
// author identity to organizer listings. Populated by the profile sync worker.
type UserProfile struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	ExternalUserID    string    `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username          string    `gorm:"index;not null" json:"username"`
	Email             string    `json:"email,omitempty"`
	DisplayName       string    `json:"display_name,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
