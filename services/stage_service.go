package services

import (
	"errors"
	"log"

	"hackathon-platform/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StageService struct {
	DB     *gorm.DB
	Policy *Policy
}

func NewStageService(db *gorm.DB, policy *Policy) *StageService {
	return &StageService{DB: db, Policy: policy}
}

func (s *StageService) ListStages(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireViewer(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	var stages []models.Stage
	if err := s.DB.Where("hackathon_id = ?", h.ID).Order("sort_order ASC").Find(&stages).Error; err != nil {
		return respond(c, Unexpected("STAGE", err))
	}
	if stages == nil {
		stages = []models.Stage{}
	}
	return c.JSON(stages)
}

func (s *StageService) GetStage(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireViewer(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	st, err := s.Policy.LoadStage(h.ID, c.Params("stage_id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(st)
}

// orderTaken reports whether another stage of the hackathon already uses order.
func (s *StageService) orderTaken(hackathonID string, order int, exceptID string) (bool, error) {
	q := s.DB.Model(&models.Stage{}).Where("hackathon_id = ? AND sort_order = ?", hackathonID, order)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *StageService) CreateStage(c *fiber.Ctx) error {
	h, userID, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	var in StageInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := in.Validate(); err != nil {
		return respond(c, err)
	}
	taken, err := s.orderTaken(h.ID, in.Order, "")
	if err != nil {
		return respond(c, Unexpected("STAGE", err))
	}
	if taken {
		return respond(c, Invalid("a stage with this order already exists"))
	}

	st := models.Stage{ID: uuid.NewString(), HackathonID: h.ID}
	in.ApplyTo(&st)
	if err := s.DB.Create(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return respond(c, Invalid("a stage with this order already exists"))
		}
		return respond(c, Unexpected("STAGE", err))
	}
	log.Printf("✅ [STAGE] %q (order %d) created in %s by %s", st.Name, st.Order, h.ID, userID)
	return c.Status(fiber.StatusCreated).JSON(st)
}

func (s *StageService) UpdateStage(c *fiber.Ctx) error {
	h, st, _, err := s.Policy.RequireStageManager(c, c.Params("id"), c.Params("stage_id"))
	if err != nil {
		return respond(c, err)
	}
	var in StageInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := in.Validate(); err != nil {
		return respond(c, err)
	}
	taken, err := s.orderTaken(h.ID, in.Order, st.ID)
	if err != nil {
		return respond(c, Unexpected("STAGE", err))
	}
	if taken {
		return respond(c, Invalid("a stage with this order already exists"))
	}

	in.ApplyTo(st)
	if err := s.DB.Save(st).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return respond(c, Invalid("a stage with this order already exists"))
		}
		return respond(c, Unexpected("STAGE", err))
	}
	return c.JSON(st)
}

// DeleteStage refuses to drop a stage that has submissions unless ?force=true, in
// which case the submissions go with it.
func (s *StageService) DeleteStage(c *fiber.Ctx) error {
	h, st, userID, err := s.Policy.RequireStageManager(c, c.Params("id"), c.Params("stage_id"))
	if err != nil {
		return respond(c, err)
	}
	force := c.QueryBool("force", false)

	var subIDs []string
	if err := s.DB.Model(&models.Submission{}).Where("stage_id = ?", st.ID).Pluck("id", &subIDs).Error; err != nil {
		return respond(c, Unexpected("STAGE", err))
	}
	if len(subIDs) > 0 && !force {
		return respond(c, Invalid("stage has submissions; pass force=true to delete them with the stage"))
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if len(subIDs) > 0 {
			if err := tx.Where("stage_id = ?", st.ID).Delete(&models.Submission{}).Error; err != nil {
				return err
			}
			for _, id := range subIDs {
				if err := AddOutboxEvent(tx, models.EventSubmissionDeleted, id, fiber.Map{"stage_id": st.ID}); err != nil {
					return err
				}
			}
		}
		return tx.Delete(st).Error
	})
	if err != nil {
		return respond(c, Unexpected("STAGE", err))
	}
	log.Printf("🗑️ [STAGE] %s deleted from %s by %s (%d submissions removed)", st.ID, h.ID, userID, len(subIDs))
	return success(c)
}

// AdvanceStage closes the stage, activates the next one by order and reports the
// elimination outcome over the closed stage's submissions.
func (s *StageService) AdvanceStage(c *fiber.Ctx) error {
	h, st, userID, err := s.Policy.RequireStageManager(c, c.Params("id"), c.Params("stage_id"))
	if err != nil {
		return respond(c, err)
	}
	if st.IsCompleted {
		return respond(c, Invalid("stage is already completed"))
	}

	var next *models.Stage
	var result EliminationResult
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var current models.Stage
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", st.ID).Error; err != nil {
			return err
		}
		if current.IsCompleted {
			return Invalid("stage is already completed")
		}
		if err := tx.Model(&current).Updates(map[string]any{"is_active": false, "is_completed": true}).Error; err != nil {
			return err
		}
		current.IsActive, current.IsCompleted = false, true
		*st = current

		var following models.Stage
		err := tx.Where("hackathon_id = ? AND sort_order > ?", h.ID, current.Order).Order("sort_order ASC").First(&following).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return err
		default:
			if err := tx.Model(&following).Update("is_active", true).Error; err != nil {
				return err
			}
			following.IsActive = true
			next = &following
		}

		var subs []models.Submission
		if err := tx.Where("stage_id = ?", current.ID).Order("submitted_at ASC").Find(&subs).Error; err != nil {
			return err
		}
		result = ApplyElimination(current, subs)
		return nil
	})
	var appErr *AppError
	if errors.As(err, &appErr) {
		return respond(c, appErr)
	}
	if err != nil {
		return respond(c, Unexpected("STAGE", err))
	}

	log.Printf("⏭️ [STAGE] %s advanced by %s: %d advancing, %d eliminated", st.ID, userID, len(result.Advancing), len(result.Eliminated))
	return c.JSON(fiber.Map{
		"stage":      st,
		"next_stage": next,
		"result":     result,
	})
}
