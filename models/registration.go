package models

import "time"

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "PENDING"
	RegistrationApproved  RegistrationStatus = "APPROVED"
	RegistrationRejected  RegistrationStatus = "REJECTED"
	RegistrationWithdrawn RegistrationStatus = "WITHDRAWN"
)

// Registration tracks a user's participation request for a hackathon.
type Registration struct {
	ID          string             `json:"id" gorm:"primaryKey"`
	HackathonID string             `json:"hackathon_id" gorm:"not null;uniqueIndex:idx_registration_user"`
	UserID      string             `json:"user_id" gorm:"not null;uniqueIndex:idx_registration_user;index"`
	Status      RegistrationStatus `json:"status" gorm:"type:varchar(16);not null;default:'PENDING'"`
	Motivation  string             `json:"motivation,omitempty" gorm:"type:text"`
	ReviewedBy  string             `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time         `json:"reviewed_at,omitempty"`
	WithdrawnAt *time.Time         `json:"withdrawn_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

type Team struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	HackathonID string       `json:"hackathon_id" gorm:"not null;index"`
	Name        string       `json:"name" gorm:"not null"`
	LeaderID    string       `json:"leader_id" gorm:"not null"`
	CreatedAt   time.Time    `json:"created_at" gorm:"autoCreateTime"`
	Members     []TeamMember `json:"members,omitempty" gorm:"foreignKey:TeamID"`
}

// TeamMember carries HackathonID so that "one team per user per hackathon" is a unique index.
type TeamMember struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	TeamID      string    `json:"team_id" gorm:"not null;index"`
	HackathonID string    `json:"hackathon_id" gorm:"not null;uniqueIndex:idx_team_member_hackathon"`
	UserID      string    `json:"user_id" gorm:"not null;uniqueIndex:idx_team_member_hackathon"`
	JoinedAt    time.Time `json:"joined_at" gorm:"autoCreateTime"`
}
