package services

import (
	"errors"
	"log"

	"hackathon-platform/models"
	"hackathon-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// OrganizationService is the seed/admin path for organization membership. The
// identity side owns the canonical data; this keeps the local lookup table usable.
type OrganizationService struct {
	DB     *gorm.DB
	Policy *Policy
}

func NewOrganizationService(db *gorm.DB, policy *Policy) *OrganizationService {
	return &OrganizationService{DB: db, Policy: policy}
}

type OrganizationInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

type MemberInput struct {
	UserID string         `json:"user_id" validate:"required"`
	Role   models.OrgRole `json:"role" validate:"required,oneof=OWNER ADMIN MEMBER"`
}

// CreateOrganization makes the caller its OWNER.
func (s *OrganizationService) CreateOrganization(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	var in OrganizationInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := utils.ValidateStruct(in); err != nil {
		return respond(c, Invalid(utils.FormatValidationErrors(err)))
	}

	org := models.Organization{
		ID:   uuid.NewString(),
		Name: in.Name,
		Slug: slug.Make(in.Name) + "-" + uuid.NewString()[:6],
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrganizationMember{
			ID:             uuid.NewString(),
			OrganizationID: org.ID,
			UserID:         userID,
			Role:           models.OrgRoleOwner,
		}).Error
	})
	if err != nil {
		return respond(c, Unexpected("ORG", err))
	}
	log.Printf("✅ [ORG] %s created by %s", org.ID, userID)
	return c.Status(fiber.StatusCreated).JSON(org)
}

// ListMyOrganizations returns the caller's memberships with their organization.
func (s *OrganizationService) ListMyOrganizations(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	type row struct {
		models.Organization
		Role models.OrgRole `json:"role"`
	}
	var rows []row
	if err := s.DB.Table("organizations").
		Select("organizations.*, organization_members.role").
		Joins("JOIN organization_members ON organization_members.organization_id = organizations.id").
		Where("organization_members.user_id = ?", userID).
		Order("organizations.name").
		Scan(&rows).Error; err != nil {
		return respond(c, Unexpected("ORG", err))
	}
	if rows == nil {
		rows = []row{}
	}
	return c.JSON(rows)
}

// loadForManager loads the organization and requires OWNER/ADMIN; it returns the caller's role.
func (s *OrganizationService) loadForManager(c *fiber.Ctx) (*models.Organization, models.OrgRole, error) {
	var org models.Organization
	if err := s.DB.First(&org, "id = ?", c.Params("id")).Error; err != nil {
		return nil, "", notFoundOr("ORG", "organization not found", err)
	}
	userID, err := requireUser(c)
	if err != nil {
		return nil, "", err
	}
	var m models.OrganizationMember
	err = s.DB.Where("organization_id = ? AND user_id = ?", org.ID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !m.Role.IsOrganizerRole()) {
		return nil, "", Forbidden("only organization owners and admins can manage members")
	}
	if err != nil {
		return nil, "", Unexpected("ORG", err)
	}
	return &org, m.Role, nil
}

// SetMember adds a member or changes their role. Only an OWNER can grant OWNER or ADMIN.
func (s *OrganizationService) SetMember(c *fiber.Ctx) error {
	org, callerRole, err := s.loadForManager(c)
	if err != nil {
		return respond(c, err)
	}
	var in MemberInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := utils.ValidateStruct(in); err != nil {
		return respond(c, Invalid(utils.FormatValidationErrors(err)))
	}
	if in.Role.IsOrganizerRole() && callerRole != models.OrgRoleOwner {
		return respond(c, Forbidden("only owners can grant organizer roles"))
	}

	var m models.OrganizationMember
	err = s.DB.Where("organization_id = ? AND user_id = ?", org.ID, in.UserID).First(&m).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		m = models.OrganizationMember{ID: uuid.NewString(), OrganizationID: org.ID, UserID: in.UserID, Role: in.Role}
		err = s.DB.Create(&m).Error
	case err == nil:
		if m.Role == models.OrgRoleOwner && callerRole != models.OrgRoleOwner {
			return respond(c, Forbidden("only owners can change an owner's role"))
		}
		m.Role = in.Role
		err = s.DB.Model(&m).Update("role", in.Role).Error
	}
	if err != nil {
		return respond(c, Unexpected("ORG", err))
	}
	return c.JSON(m)
}

// RemoveMember refuses to remove the last owner.
func (s *OrganizationService) RemoveMember(c *fiber.Ctx) error {
	org, callerRole, err := s.loadForManager(c)
	if err != nil {
		return respond(c, err)
	}
	var m models.OrganizationMember
	if err := s.DB.Where("organization_id = ? AND user_id = ?", org.ID, c.Params("user_id")).First(&m).Error; err != nil {
		return respond(c, notFoundOr("ORG", "member not found", err))
	}
	if m.Role == models.OrgRoleOwner {
		if callerRole != models.OrgRoleOwner {
			return respond(c, Forbidden("only owners can remove an owner"))
		}
		var owners int64
		if err := s.DB.Model(&models.OrganizationMember{}).
			Where("organization_id = ? AND role = ?", org.ID, models.OrgRoleOwner).
			Count(&owners).Error; err != nil {
			return respond(c, Unexpected("ORG", err))
		}
		if owners <= 1 {
			return respond(c, Invalid("an organization needs at least one owner"))
		}
	}
	if err := s.DB.Delete(&m).Error; err != nil {
		return respond(c, Unexpected("ORG", err))
	}
	return success(c)
}
