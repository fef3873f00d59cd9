package models

import "time"

type OrgRole string

const (
	OrgRoleOwner  OrgRole = "OWNER"
	OrgRoleAdmin  OrgRole = "ADMIN"
	OrgRoleMember OrgRole = "MEMBER"
)

// Organization owns hackathons. Membership is canonical on the identity side; the
// local copy decides who organizes what.
type Organization struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type OrganizationMember struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	OrganizationID string    `json:"organization_id" gorm:"not null;uniqueIndex:idx_org_member"`
	UserID         string    `json:"user_id" gorm:"not null;uniqueIndex:idx_org_member;index"`
	Role           OrgRole   `json:"role" gorm:"type:varchar(16);not null;default:'MEMBER'"`
	JoinedAt       time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

// IsOrganizerRole reports whether the membership role grants hackathon management.
func (r OrgRole) IsOrganizerRole() bool {
	return r == OrgRoleOwner || r == OrgRoleAdmin
}
