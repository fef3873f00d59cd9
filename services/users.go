// services/users.go
package services

import (
	"strconv"
	"strings"

	"hackathon-platform/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserService reads the locally mirrored user_profiles table.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

type UserSummary struct {
	ExternalUserID    string  `json:"external_user_id"`
	Username          string  `json:"username"`
	DisplayName       string  `json:"display_name"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
}

// SearchUsers lets signed-in callers find people to invite as staff or teammates.
// Emails are matched but never returned.
func (s *UserService) SearchUsers(c *fiber.Ctx) error {
	if _, err := requireUser(c); err != nil {
		return respond(c, err)
	}
	query := strings.TrimSpace(c.Query("q", ""))
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	db := s.DB.Model(&models.UserProfile{}).Order("username").Limit(limit)
	if query != "" {
		term := "%" + strings.ToLower(query) + "%"
		db = db.Where(
			"LOWER(username) LIKE ? OR LOWER(display_name) LIKE ? OR LOWER(email) LIKE ?",
			term, term, term,
		)
	}

	var users []models.UserProfile
	if err := db.Find(&users).Error; err != nil {
		return respond(c, Unexpected("USERS", err))
	}

	res := make([]UserSummary, len(users))
	for i, u := range users {
		res[i] = UserSummary{
			ExternalUserID:    u.ExternalUserID,
			Username:          u.Username,
			DisplayName:       u.DisplayName,
			ProfilePictureURL: u.ProfilePictureURL,
		}
	}
	return c.JSON(res)
}
