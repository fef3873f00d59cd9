package services

import (
	"errors"
	"log"
	"time"

	"hackathon-platform/config"
	"hackathon-platform/metrics"
	"hackathon-platform/models"
	"hackathon-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type HackathonService struct {
	DB     *gorm.DB
	Policy *Policy
}

func NewHackathonService(db *gorm.DB, policy *Policy) *HackathonService {
	return &HackathonService{DB: db, Policy: policy}
}

// currentStatus is the status every read path reports.
func currentStatus(h models.Hackathon) models.HackathonStatus {
	return ComputeStatus(DatesOf(h), h.Status, timeNow(), config.Location)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return Invalid("invalid request body")
	}
	return nil
}

type HackathonInput struct {
	OrganizationID    string     `json:"organization_id" validate:"required"`
	Name              string     `json:"name" validate:"required,max=160"`
	Description       string     `json:"description" validate:"max=20000"`
	IsPublic          *bool      `json:"is_public"`
	RegistrationStart time.Time  `json:"registration_start" validate:"required"`
	RegistrationEnd   time.Time  `json:"registration_end" validate:"required"`
	HackathonStart    time.Time  `json:"hackathon_start" validate:"required"`
	HackathonEnd      time.Time  `json:"hackathon_end" validate:"required"`
	ResultsDate       *time.Time `json:"results_date"`
	MaxTeamSize       int        `json:"max_team_size" validate:"omitempty,min=1,max=20"`
	Draft             bool       `json:"draft"`
}

func (in HackathonInput) dates() StatusDates {
	return StatusDates{
		RegistrationStart: in.RegistrationStart,
		RegistrationEnd:   in.RegistrationEnd,
		HackathonStart:    in.HackathonStart,
		HackathonEnd:      in.HackathonEnd,
		ResultsDate:       in.ResultsDate,
	}
}

func (in HackathonInput) Validate() error {
	if err := utils.ValidateStruct(in); err != nil {
		return Invalid(utils.FormatValidationErrors(err))
	}
	return in.dates().Validate()
}

// uniqueSlug appends a short suffix when the plain slug is taken.
func (s *HackathonService) uniqueSlug(name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "hackathon"
	}
	candidate := base
	for i := 0; i < 5; i++ {
		var count int64
		if err := s.DB.Model(&models.Hackathon{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = base + "-" + uuid.NewString()[:6]
	}
	return base + "-" + uuid.NewString(), nil
}

func (s *HackathonService) CreateHackathon(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	var in HackathonInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := in.Validate(); err != nil {
		return respond(c, err)
	}

	var org models.Organization
	if err := s.DB.First(&org, "id = ?", in.OrganizationID).Error; err != nil {
		return respond(c, notFoundOr("HACKATHON", "organization not found", err))
	}
	ok, err := s.Policy.IsOrganizer(userID, org.ID)
	if err != nil {
		return respond(c, Unexpected("HACKATHON", err))
	}
	if !ok {
		return respond(c, Forbidden("only organization owners and admins can create hackathons"))
	}

	sl, err := s.uniqueSlug(in.Name)
	if err != nil {
		return respond(c, Unexpected("HACKATHON", err))
	}
	h := models.Hackathon{
		ID:                uuid.NewString(),
		OrganizationID:    org.ID,
		Name:              in.Name,
		Slug:              sl,
		Description:       in.Description,
		IsPublic:          in.IsPublic == nil || *in.IsPublic,
		RegistrationStart: in.RegistrationStart,
		RegistrationEnd:   in.RegistrationEnd,
		HackathonStart:    in.HackathonStart,
		HackathonEnd:      in.HackathonEnd,
		ResultsDate:       in.ResultsDate,
		MaxTeamSize:       in.MaxTeamSize,
		CreatedBy:         userID,
	}
	if h.MaxTeamSize == 0 {
		h.MaxTeamSize = 4
	}
	h.Status = models.HackathonStatusDraft
	if !in.Draft {
		h.Status = ComputeStatus(DatesOf(h), models.HackathonStatusPublished, timeNow(), config.Location)
	}

	if err := s.DB.Create(&h).Error; err != nil {
		return respond(c, Unexpected("HACKATHON", err))
	}
	log.Printf("✅ [HACKATHON] %s created by %s (status %s)", h.ID, userID, h.Status)
	return c.Status(fiber.StatusCreated).JSON(h)
}

func (s *HackathonService) GetHackathon(c *fiber.Ctx) error {
	h, userID, err := s.Policy.RequireViewer(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	if h.Status == models.HackathonStatusDraft {
		ok, err := s.Policy.IsOrganizer(userID, h.OrganizationID)
		if err != nil {
			return respond(c, Unexpected("HACKATHON", err))
		}
		if !ok {
			return respond(c, NotFound("hackathon not found"))
		}
	}
	h.Status = currentStatus(*h)
	return c.JSON(h)
}

// ListHackathons returns public, non-draft hackathons, optionally for one organization.
func (s *HackathonService) ListHackathons(c *fiber.Ctx) error {
	q := s.DB.Where("is_public = ? AND status <> ?", true, models.HackathonStatusDraft)
	if org := c.Query("organization_id"); org != "" {
		q = q.Where("organization_id = ?", org)
	}
	var list []models.Hackathon
	if err := q.Order("hackathon_start ASC").Find(&list).Error; err != nil {
		return respond(c, Unexpected("HACKATHON", err))
	}
	if list == nil {
		list = []models.Hackathon{}
	}
	for i := range list {
		list[i].Status = currentStatus(list[i])
	}
	if want := c.Query("status"); want != "" {
		filtered := list[:0]
		for _, h := range list {
			if string(h.Status) == want {
				filtered = append(filtered, h)
			}
		}
		list = filtered
	}
	return c.JSON(list)
}

func (s *HackathonService) UpdateHackathon(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	var in HackathonInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	in.OrganizationID = h.OrganizationID
	if err := in.Validate(); err != nil {
		return respond(c, err)
	}

	h.Name = in.Name
	h.Description = in.Description
	if in.IsPublic != nil {
		h.IsPublic = *in.IsPublic
	}
	h.RegistrationStart = in.RegistrationStart
	h.RegistrationEnd = in.RegistrationEnd
	h.HackathonStart = in.HackathonStart
	h.HackathonEnd = in.HackathonEnd
	h.ResultsDate = in.ResultsDate
	if in.MaxTeamSize > 0 {
		h.MaxTeamSize = in.MaxTeamSize
	}
	h.Status = currentStatus(*h)

	if err := s.DB.Omit("Stages").Save(h).Error; err != nil {
		return respond(c, Unexpected("HACKATHON", err))
	}
	return c.JSON(h)
}

type statusPinInput struct {
	Status string `json:"status" validate:"required,oneof=DRAFT CANCELLED AUTO"`
}

// PinStatus sets DRAFT or CANCELLED, or AUTO to go back to date-derived status.
func (s *HackathonService) PinStatus(c *fiber.Ctx) error {
	h, userID, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	var in statusPinInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := utils.ValidateStruct(in); err != nil {
		return respond(c, Invalid(utils.FormatValidationErrors(err)))
	}

	previous := currentStatus(*h)
	switch in.Status {
	case "AUTO":
		h.Status = ComputeStatus(DatesOf(*h), models.HackathonStatusPublished, timeNow(), config.Location)
	default:
		h.Status = models.HackathonStatus(in.Status)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Hackathon{}).Where("id = ?", h.ID).Update("status", h.Status).Error; err != nil {
			return err
		}
		if previous == h.Status {
			return nil
		}
		return AddOutboxEvent(tx, models.EventHackathonStatus, h.ID, statusChange{
			HackathonID: h.ID, From: previous, To: h.Status, ChangedBy: userID,
		})
	})
	if err != nil {
		return respond(c, Unexpected("HACKATHON", err))
	}
	return c.JSON(h)
}

type statusChange struct {
	HackathonID string                 `json:"hackathon_id"`
	From        models.HackathonStatus `json:"from"`
	To          models.HackathonStatus `json:"to"`
	ChangedBy   string                 `json:"changed_by,omitempty"`
}

// ReconcileStatuses persists derived statuses that drifted from the stored value and
// emits one status-changed event per transition.
func (s *HackathonService) ReconcileStatuses(now time.Time) (int, error) {
	var list []models.Hackathon
	if err := s.DB.Where("status NOT IN ?", []models.HackathonStatus{
		models.HackathonStatusDraft, models.HackathonStatusCancelled,
	}).Find(&list).Error; err != nil {
		return 0, err
	}
	changed := 0
	for _, h := range list {
		next := ComputeStatus(DatesOf(h), h.Status, now, config.Location)
		if next == h.Status {
			continue
		}
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Hackathon{}).Where("id = ? AND status = ?", h.ID, h.Status).Update("status", next)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStatusRace
			}
			return AddOutboxEvent(tx, models.EventHackathonStatus, h.ID, statusChange{HackathonID: h.ID, From: h.Status, To: next})
		})
		if errors.Is(err, errStatusRace) {
			continue
		}
		if err != nil {
			return changed, err
		}
		changed++
		metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
		log.Printf("[Scheduler] hackathon %s: %s → %s", h.ID, h.Status, next)
	}
	return changed, nil
}

var errStatusRace = errors.New("status changed concurrently")
