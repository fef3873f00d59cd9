package services

import (
	"errors"
	"log"

	"hackathon-platform/models"
	"hackathon-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegistrationService manages participation: registrations, teams and staff.
type RegistrationService struct {
	DB     *gorm.DB
	Policy *Policy
}

func NewRegistrationService(db *gorm.DB, policy *Policy) *RegistrationService {
	return &RegistrationService{DB: db, Policy: policy}
}

func (s *RegistrationService) Register(c *fiber.Ctx) error {
	type Req struct {
		Motivation string `json:"motivation" validate:"max=2000"`
	}
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	var req Req
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return respond(c, err)
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return respond(c, Invalid(utils.FormatValidationErrors(err)))
	}
	if currentStatus(*h) != models.HackathonStatusRegistrationOpen {
		return respond(c, Invalid("registration is not open"))
	}

	existing, err := s.Policy.Registration(h.ID, userID)
	if err != nil {
		return respond(c, Unexpected("REGISTRATION", err))
	}
	if existing != nil && existing.Status != models.RegistrationWithdrawn {
		return respond(c, Invalid("already registered for this hackathon"))
	}

	if existing != nil {
		existing.Status = models.RegistrationPending
		existing.Motivation = req.Motivation
		existing.WithdrawnAt = nil
		existing.ReviewedAt = nil
		existing.ReviewedBy = ""
		if err := s.DB.Save(existing).Error; err != nil {
			return respond(c, Unexpected("REGISTRATION", err))
		}
		return c.Status(fiber.StatusCreated).JSON(existing)
	}

	reg := models.Registration{
		ID:          uuid.NewString(),
		HackathonID: h.ID,
		UserID:      userID,
		Status:      models.RegistrationPending,
		Motivation:  req.Motivation,
	}
	if err := s.DB.Create(&reg).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return respond(c, Invalid("already registered for this hackathon"))
		}
		return respond(c, Unexpected("REGISTRATION", err))
	}
	log.Printf("✅ [REGISTRATION] user %s registered for %s", userID, h.ID)
	return c.Status(fiber.StatusCreated).JSON(reg)
}

func (s *RegistrationService) GetMyRegistration(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	if _, err := s.Policy.LoadHackathon(c.Params("id")); err != nil {
		return respond(c, err)
	}
	reg, err := s.Policy.Registration(c.Params("id"), userID)
	if err != nil {
		return respond(c, Unexpected("REGISTRATION", err))
	}
	if reg == nil {
		return respond(c, NotFound("not registered"))
	}
	return c.JSON(reg)
}

// Withdraw marks the caller's registration withdrawn and drops their team membership.
func (s *RegistrationService) Withdraw(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	reg, err := s.Policy.Registration(h.ID, userID)
	if err != nil {
		return respond(c, Unexpected("REGISTRATION", err))
	}
	if reg == nil || reg.Status == models.RegistrationWithdrawn {
		return respond(c, NotFound("no active registration"))
	}

	now := timeNow()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(reg).Updates(map[string]any{
			"status":       models.RegistrationWithdrawn,
			"withdrawn_at": &now,
		}).Error; err != nil {
			return err
		}
		return tx.Where("hackathon_id = ? AND user_id = ?", h.ID, userID).Delete(&models.TeamMember{}).Error
	})
	if err != nil {
		return respond(c, Unexpected("REGISTRATION", err))
	}
	return success(c)
}

func (s *RegistrationService) ListRegistrations(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	q := s.DB.Where("hackathon_id = ?", h.ID)
	if st := c.Query("status"); st != "" {
		q = q.Where("status = ?", st)
	}
	var regs []models.Registration
	if err := q.Order("created_at ASC").Find(&regs).Error; err != nil {
		return respond(c, Unexpected("REGISTRATION", err))
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	return c.JSON(regs)
}

// ReviewRegistration approves or rejects a pending registration.
func (s *RegistrationService) ReviewRegistration(c *fiber.Ctx) error {
	type Req struct {
		Status models.RegistrationStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	}
	h, reviewer, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	var req Req
	if err := parseBody(c, &req); err != nil {
		return respond(c, err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return respond(c, Invalid(utils.FormatValidationErrors(err)))
	}

	reg, err := s.Policy.Registration(h.ID, c.Params("user_id"))
	if err != nil {
		return respond(c, Unexpected("REGISTRATION", err))
	}
	if reg == nil {
		return respond(c, NotFound("registration not found"))
	}
	if reg.Status == models.RegistrationWithdrawn {
		return respond(c, Invalid("registration was withdrawn"))
	}

	now := timeNow()
	reg.Status = req.Status
	reg.ReviewedBy = reviewer
	reg.ReviewedAt = &now
	if err := s.DB.Save(reg).Error; err != nil {
		return respond(c, Unexpected("REGISTRATION", err))
	}
	log.Printf("✅ [REGISTRATION] %s for user %s set to %s by %s", h.ID, reg.UserID, reg.Status, reviewer)
	return c.JSON(reg)
}

func (s *RegistrationService) requireApproved(c *fiber.Ctx) (*models.Hackathon, string, error) {
	userID, err := requireUser(c)
	if err != nil {
		return nil, "", err
	}
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return nil, "", err
	}
	ok, err := s.Policy.IsApprovedParticipant(h.ID, userID)
	if err != nil {
		return nil, "", Unexpected("TEAM", err)
	}
	if !ok {
		return nil, "", Forbidden("only approved participants can do this")
	}
	return h, userID, nil
}

func (s *RegistrationService) CreateTeam(c *fiber.Ctx) error {
	type Req struct {
		Name string `json:"name" validate:"required,max=80"`
	}
	h, userID, err := s.requireApproved(c)
	if err != nil {
		return respond(c, err)
	}
	var req Req
	if err := parseBody(c, &req); err != nil {
		return respond(c, err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return respond(c, Invalid(utils.FormatValidationErrors(err)))
	}
	if tm, err := s.Policy.TeamOf(h.ID, userID); err != nil {
		return respond(c, Unexpected("TEAM", err))
	} else if tm != nil {
		return respond(c, Invalid("you are already in a team for this hackathon"))
	}

	team := models.Team{ID: uuid.NewString(), HackathonID: h.ID, Name: req.Name, LeaderID: userID}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(&team).Error; err != nil {
			return err
		}
		member := models.TeamMember{ID: uuid.NewString(), TeamID: team.ID, HackathonID: h.ID, UserID: userID}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		team.Members = []models.TeamMember{member}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return respond(c, Invalid("you are already in a team for this hackathon"))
	}
	if err != nil {
		return respond(c, Unexpected("TEAM", err))
	}
	return c.Status(fiber.StatusCreated).JSON(team)
}

func (s *RegistrationService) JoinTeam(c *fiber.Ctx) error {
	h, userID, err := s.requireApproved(c)
	if err != nil {
		return respond(c, err)
	}
	teamID := c.Params("team_id")

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&team, "id = ? AND hackathon_id = ?", teamID, h.ID).Error; err != nil {
			return notFoundOr("TEAM", "team not found", err)
		}
		var size int64
		if err := tx.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&size).Error; err != nil {
			return err
		}
		if int(size) >= h.MaxTeamSize {
			return Invalid("team is full")
		}
		member := models.TeamMember{ID: uuid.NewString(), TeamID: team.ID, HackathonID: h.ID, UserID: userID}
		return tx.Create(&member).Error
	})
	var appErr *AppError
	switch {
	case err == nil:
		return success(c)
	case errors.As(err, &appErr):
		return respond(c, appErr)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return respond(c, Invalid("you are already in a team for this hackathon"))
	default:
		return respond(c, Unexpected("TEAM", err))
	}
}

func (s *RegistrationService) ListTeams(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireViewer(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	var teams []models.Team
	if err := s.DB.Preload("Members").Where("hackathon_id = ?", h.ID).Order("created_at ASC").Find(&teams).Error; err != nil {
		return respond(c, Unexpected("TEAM", err))
	}
	if teams == nil {
		teams = []models.Team{}
	}
	return c.JSON(teams)
}

func (s *RegistrationService) AssignStaff(c *fiber.Ctx) error {
	type Req struct {
		UserID string           `json:"user_id" validate:"required"`
		Role   models.StaffRole `json:"role" validate:"required,oneof=MENTOR JUDGE"`
	}
	h, _, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	var req Req
	if err := parseBody(c, &req); err != nil {
		return respond(c, err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return respond(c, Invalid(utils.FormatValidationErrors(err)))
	}

	staff := models.HackathonStaff{ID: uuid.NewString(), HackathonID: h.ID, UserID: req.UserID, Role: req.Role}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hackathon_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&staff).Error; err != nil {
		return respond(c, Unexpected("STAFF", err))
	}
	return c.Status(fiber.StatusCreated).JSON(staff)
}

func (s *RegistrationService) ListStaff(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireViewer(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	var staff []models.HackathonStaff
	if err := s.DB.Where("hackathon_id = ?", h.ID).Order("role ASC, created_at ASC").Find(&staff).Error; err != nil {
		return respond(c, Unexpected("STAFF", err))
	}
	if staff == nil {
		staff = []models.HackathonStaff{}
	}
	return c.JSON(staff)
}

func (s *RegistrationService) RemoveStaff(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	res := s.DB.Where("hackathon_id = ? AND user_id = ?", h.ID, c.Params("user_id")).Delete(&models.HackathonStaff{})
	if res.Error != nil {
		return respond(c, Unexpected("STAFF", res.Error))
	}
	if res.RowsAffected == 0 {
		return respond(c, NotFound("staff member not found"))
	}
	return success(c)
}
