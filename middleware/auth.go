// middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type sessionClaims struct {
	UID  string `json:"uid,omitempty"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// parseSession validates an HS256 session token and returns its user id and roles.
func parseSession(secret, tokenStr string) (string, []string, error) {
	if secret == "" {
		return "", nil, fiber.NewError(fiber.StatusUnauthorized, "session verification is not configured")
	}
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims,
		func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return "", nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	uid := claims.UID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return "", nil, fiber.NewError(fiber.StatusUnauthorized, "missing uid/sub")
	}
	return uid, splitRoles(claims.Role), nil
}

func splitRoles(raw string) []string {
	var roles []string
	for _, r := range strings.Split(raw, ",") {
		r = strings.TrimSpace(r)
		if r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

func tokenMatches(got, want string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// Identity resolves the caller for every request. Requests relayed by the gateway
// carry X-Gateway-Token with X-User-ID/X-User-Roles; direct clients send a Bearer
// session token. Requests with neither are anonymous (user_id == "").
func Identity(jwtSecret, gatewayToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", "")
		c.Locals("user_roles", []string(nil))

		if tokenMatches(c.Get("X-Gateway-Token"), gatewayToken) {
			if userID := strings.TrimSpace(c.Get("X-User-ID")); userID != "" {
				c.Locals("user_id", userID)
				c.Locals("user_roles", splitRoles(c.Get("X-User-Roles")))
				return c.Next()
			}
		}

		auth := c.Get("Authorization")
		if auth == "" || !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			return c.Next()
		}
		uid, roles, err := parseSession(jwtSecret, strings.TrimSpace(auth[7:]))
		if err != nil {
			log.Printf("🚫 [AUTH] rejected session token on %s: %v", c.Path(), err)
			return err
		}
		c.Locals("user_id", uid)
		c.Locals("user_roles", roles)
		return c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, _ := c.Locals("user_id").(string); id == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}
