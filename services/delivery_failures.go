package services

import (
	"strconv"

	"hackathon-platform/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DeliveryFailureService exposes the dead-letter table to operators (service token only).
type DeliveryFailureService struct {
	DB *gorm.DB
}

func (s *DeliveryFailureService) ListDeliveryFailures(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.DB.Order("id DESC").Limit(limit)
	if c.Query("all") != "true" {
		q = q.Where("resolved = ?", false)
	}
	var rows []models.DeliveryFailure
	if err := q.Find(&rows).Error; err != nil {
		return respond(c, Unexpected("DELIVERY", err))
	}
	if rows == nil {
		rows = []models.DeliveryFailure{}
	}
	return c.JSON(rows)
}

// ResolveDeliveryFailure marks a failure handled without redelivering it.
func (s *DeliveryFailureService) ResolveDeliveryFailure(c *fiber.Ctx) error {
	now := timeNow()
	res := s.DB.Model(&models.DeliveryFailure{}).
		Where("id = ? AND resolved = ?", c.Params("id"), false).
		Updates(map[string]any{"resolved": true, "retried_at": &now})
	if res.Error != nil {
		return respond(c, Unexpected("DELIVERY", res.Error))
	}
	if res.RowsAffected == 0 {
		return respond(c, NotFound("delivery failure not found"))
	}
	return success(c)
}
