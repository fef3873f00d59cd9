package services

import (
	"hackathon-platform/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// GetUserNotifications lists the caller's notifications, newest first.
// Query: ?unread=true, ?hackathon_id=, ?limit= (default 50, max 200).
func (s *NotificationService) GetUserNotifications(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	q := s.DB.Where("user_id = ?", userID)
	if c.QueryBool("unread", false) {
		q = q.Where("is_read = ?", false)
	}
	if h := c.Query("hackathon_id"); h != "" {
		q = q.Where("hackathon_id = ?", h)
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var list []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return respond(c, Unexpected("NOTIFICATION", err))
	}
	if list == nil {
		list = []models.Notification{}
	}
	return c.JSON(list)
}

type NotificationCounts struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
}

func (s *NotificationService) GetUserNotificationCounts(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	var counts NotificationCounts
	if err := s.DB.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&counts.Total).Error; err != nil {
		return respond(c, Unexpected("NOTIFICATION", err))
	}
	if err := s.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&counts.Unread).Error; err != nil {
		return respond(c, Unexpected("NOTIFICATION", err))
	}
	return c.JSON(counts)
}

func (s *NotificationService) MarkNotificationAsRead(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	var n models.Notification
	if err := s.DB.First(&n, "id = ? AND user_id = ?", c.Params("id"), userID).Error; err != nil {
		return respond(c, notFoundOr("NOTIFICATION", "notification not found", err))
	}
	if !n.IsRead {
		now := timeNow()
		n.IsRead = true
		n.ReadAt = &now
		if err := s.DB.Model(&n).Updates(map[string]any{"is_read": true, "read_at": &now}).Error; err != nil {
			return respond(c, Unexpected("NOTIFICATION", err))
		}
	}
	return c.JSON(n)
}

func (s *NotificationService) MarkAllNotificationsAsRead(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	now := timeNow()
	q := s.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false)
	if h := c.Query("hackathon_id"); h != "" {
		q = q.Where("hackathon_id = ?", h)
	}
	result := q.Updates(map[string]any{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return respond(c, Unexpected("NOTIFICATION", result.Error))
	}
	return c.JSON(fiber.Map{"success": true, "marked_count": result.RowsAffected})
}
