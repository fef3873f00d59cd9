package services

import (
	"errors"

	"hackathon-platform/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Policy answers every "who may do what" question for a hackathon. Handlers go
// through it instead of re-deriving organizer checks.
type Policy struct {
	DB *gorm.DB
}

func NewPolicy(db *gorm.DB) *Policy {
	return &Policy{DB: db}
}

// currentUser returns the caller's id, or "" for anonymous requests.
func currentUser(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

func requireUser(c *fiber.Ctx) (string, error) {
	id := currentUser(c)
	if id == "" {
		return "", Unauthenticated()
	}
	return id, nil
}

func (p *Policy) LoadHackathon(id string) (*models.Hackathon, error) {
	var h models.Hackathon
	if err := p.DB.First(&h, "id = ?", id).Error; err != nil {
		return nil, notFoundOr("POLICY", "hackathon not found", err)
	}
	return &h, nil
}

// LoadStage fails with 404 when the stage does not belong to hackathonID.
func (p *Policy) LoadStage(hackathonID, stageID string) (*models.Stage, error) {
	var st models.Stage
	if err := p.DB.First(&st, "id = ? AND hackathon_id = ?", stageID, hackathonID).Error; err != nil {
		return nil, notFoundOr("POLICY", "stage not found", err)
	}
	return &st, nil
}

// IsOrganizer reports OWNER or ADMIN membership of the organization.
func (p *Policy) IsOrganizer(userID, organizationID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var m models.OrganizationMember
	err := p.DB.Where("organization_id = ? AND user_id = ?", organizationID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Role.IsOrganizerRole(), nil
}

// CanManageHackathon reports whether userID organizes the hackathon's organization.
func (p *Policy) CanManageHackathon(userID, hackathonID string) (bool, error) {
	h, err := p.LoadHackathon(hackathonID)
	if err != nil {
		return false, err
	}
	return p.IsOrganizer(userID, h.OrganizationID)
}

// RequireManager checks existence first, then session, then role.
func (p *Policy) RequireManager(c *fiber.Ctx, hackathonID string) (*models.Hackathon, string, error) {
	h, err := p.LoadHackathon(hackathonID)
	if err != nil {
		return nil, "", err
	}
	userID, err := p.authorizeManager(c, h)
	if err != nil {
		return nil, "", err
	}
	return h, userID, nil
}

// RequireStageManager is RequireManager for routes that also address a stage.
func (p *Policy) RequireStageManager(c *fiber.Ctx, hackathonID, stageID string) (*models.Hackathon, *models.Stage, string, error) {
	h, err := p.LoadHackathon(hackathonID)
	if err != nil {
		return nil, nil, "", err
	}
	st, err := p.LoadStage(h.ID, stageID)
	if err != nil {
		return nil, nil, "", err
	}
	userID, err := p.authorizeManager(c, h)
	if err != nil {
		return nil, nil, "", err
	}
	return h, st, userID, nil
}

func (p *Policy) authorizeManager(c *fiber.Ctx, h *models.Hackathon) (string, error) {
	userID, err := requireUser(c)
	if err != nil {
		return "", err
	}
	ok, err := p.IsOrganizer(userID, h.OrganizationID)
	if err != nil {
		return "", Unexpected("POLICY", err)
	}
	if !ok {
		return "", Forbidden("only organizers can manage this hackathon")
	}
	return userID, nil
}

// Registration returns the caller's registration or nil.
func (p *Policy) Registration(hackathonID, userID string) (*models.Registration, error) {
	if userID == "" {
		return nil, nil
	}
	var r models.Registration
	err := p.DB.Where("hackathon_id = ? AND user_id = ?", hackathonID, userID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Policy) IsApprovedParticipant(hackathonID, userID string) (bool, error) {
	r, err := p.Registration(hackathonID, userID)
	if err != nil || r == nil {
		return false, err
	}
	return r.Status == models.RegistrationApproved, nil
}

// CanViewHackathon covers stage listings and other read paths: public events are
// open to everyone, private ones to organizers and approved participants.
func (p *Policy) CanViewHackathon(userID string, h *models.Hackathon) (bool, error) {
	if h.IsPublic {
		return true, nil
	}
	if userID == "" {
		return false, nil
	}
	if ok, err := p.IsOrganizer(userID, h.OrganizationID); err != nil || ok {
		return ok, err
	}
	return p.IsApprovedParticipant(h.ID, userID)
}

func (p *Policy) RequireViewer(c *fiber.Ctx, hackathonID string) (*models.Hackathon, string, error) {
	h, err := p.LoadHackathon(hackathonID)
	if err != nil {
		return nil, "", err
	}
	userID := currentUser(c)
	ok, err := p.CanViewHackathon(userID, h)
	if err != nil {
		return nil, "", Unexpected("POLICY", err)
	}
	if !ok {
		if userID == "" {
			return nil, "", Unauthenticated()
		}
		return nil, "", Forbidden("hackathon is private")
	}
	return h, userID, nil
}

// CanHost allows mentors, judges and organizers to own meetings.
func (p *Policy) CanHost(userID string, h *models.Hackathon) (bool, error) {
	var count int64
	if err := p.DB.Model(&models.HackathonStaff{}).
		Where("hackathon_id = ? AND user_id = ?", h.ID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	return p.IsOrganizer(userID, h.OrganizationID)
}

// TeamOf returns the user's team membership in the hackathon or nil.
func (p *Policy) TeamOf(hackathonID, userID string) (*models.TeamMember, error) {
	var tm models.TeamMember
	err := p.DB.Where("hackathon_id = ? AND user_id = ?", hackathonID, userID).First(&tm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tm, nil
}
