package models

import (
	"time"
)

type HackathonStatus string

const (
	HackathonStatusDraft              HackathonStatus = "DRAFT"
	HackathonStatusPublished          HackathonStatus = "PUBLISHED"
	HackathonStatusRegistrationOpen   HackathonStatus = "REGISTRATION_OPEN"
	HackathonStatusRegistrationClosed HackathonStatus = "REGISTRATION_CLOSED"
	HackathonStatusInProgress         HackathonStatus = "IN_PROGRESS"
	HackathonStatusJudging            HackathonStatus = "JUDGING"
	HackathonStatusCompleted          HackathonStatus = "COMPLETED"
	HackathonStatusCancelled          HackathonStatus = "CANCELLED"
)

// IsManual reports whether the status is pinned by an organizer rather than derived from dates.
func (s HackathonStatus) IsManual() bool {
	return s == HackathonStatusDraft || s == HackathonStatusCancelled
}

// Hackathon is a timed event owned by an organization.
type Hackathon struct {
	ID                string          `json:"id" gorm:"primaryKey"`
	OrganizationID    string          `json:"organization_id" gorm:"not null;index"`
	Name              string          `json:"name" gorm:"not null"`
	Slug              string          `json:"slug" gorm:"uniqueIndex"`
	Description       string          `json:"description" gorm:"type:text"`
	IsPublic          bool            `json:"is_public" gorm:"not null"`
	Status            HackathonStatus `json:"status" gorm:"type:varchar(32);not null;default:'DRAFT'"`
	RegistrationStart time.Time       `json:"registration_start" gorm:"not null"`
	RegistrationEnd   time.Time       `json:"registration_end" gorm:"not null"`
	HackathonStart    time.Time       `json:"hackathon_start" gorm:"not null"`
	HackathonEnd      time.Time       `json:"hackathon_end" gorm:"not null"`
	ResultsDate       *time.Time      `json:"results_date,omitempty"`
	MaxTeamSize       int             `json:"max_team_size" gorm:"default:4"`
	CreatedBy         string          `json:"created_by"`
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	Stages []Stage `json:"stages,omitempty" gorm:"foreignKey:HackathonID"`
}

type StaffRole string

const (
	StaffRoleMentor StaffRole = "MENTOR"
	StaffRoleJudge  StaffRole = "JUDGE"
)

// HackathonStaff grants a user the right to host meetings for a hackathon.
type HackathonStaff struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	HackathonID string    `json:"hackathon_id" gorm:"not null;uniqueIndex:idx_staff_user"`
	UserID      string    `json:"user_id" gorm:"not null;uniqueIndex:idx_staff_user;index"`
	Role        StaffRole `json:"role" gorm:"type:varchar(16);not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}
