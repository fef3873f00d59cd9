// middleware/gateway.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// ServiceTokenAuth guards internal endpoints (metrics, delivery failures) with the
// shared X-Service-Token. An empty expected token rejects every request.
func ServiceTokenAuth(expectedToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !tokenMatches(c.Get("X-Service-Token"), expectedToken) {
			log.Printf("❌ [SERVICE_AUTH] invalid service token for %s", c.Path())
			return fiber.NewError(fiber.StatusUnauthorized, "invalid service token")
		}
		return c.Next()
	}
}
