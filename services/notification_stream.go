package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"hackathon-platform/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var streamPollInterval = 2 * time.Second

// StreamUserNotificationsSSE pushes the caller's new notifications as server-sent
// events, polling the table every couple of seconds.
func (s *NotificationService) StreamUserNotificationsSSE(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.Context()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(streamPollInterval)
		defer ticker.Stop()

		var cursor time.Time
		var latest models.Notification
		if err := s.DB.Where("user_id = ?", userID).Order("created_at DESC").First(&latest).Error; err == nil {
			cursor = latest.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[SSE] init error for user %s: %v", userID, err)
		}

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				var fresh []models.Notification
				if err := s.DB.Where("user_id = ? AND created_at > ?", userID, cursor).
					Order("created_at ASC").
					Find(&fresh).Error; err != nil {
					log.Printf("[SSE] query error for user %s: %v", userID, err)
					continue
				}
				if len(fresh) == 0 {
					// keepalive so dead connections surface on Flush
					w.WriteString(":\n\n")
				}
				for _, n := range fresh {
					payload, _ := json.Marshal(n)
					fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", n.ID, payload)
				}
				if len(fresh) > 0 {
					cursor = fresh[len(fresh)-1].CreatedAt
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})
	return nil
}
