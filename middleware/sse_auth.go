// middleware/sse_auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware accepts the session token from ?token= because browsers cannot
// set headers on EventSource connections.
//
// Usage:
//
//	app.Get("/notifications/stream", middleware.SSEAuthMiddleware(secret), notificationService.StreamUserNotificationsSSE)
func SSEAuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, _ := c.Locals("user_id").(string); id != "" {
			return c.Next()
		}
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing token in query")
		}
		uid, roles, err := parseSession(jwtSecret, token)
		if err != nil {
			return err
		}
		c.Locals("user_id", uid)
		c.Locals("user_roles", roles)
		return c.Next()
	}
}
