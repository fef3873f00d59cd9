package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func whoami(c *fiber.Ctx) error {
	id, _ := c.Locals("user_id").(string)
	return c.SendString(id)
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(Identity(testSecret, "gw-token"))
	app.Get("/whoami", whoami)
	app.Get("/private", RequireAuth(), whoami)
	app.Get("/stream", SSEAuthMiddleware(testSecret), whoami)
	app.Get("/internal", ServiceTokenAuth("svc"), whoami)
	return app
}

func do(t *testing.T, app *fiber.App, path string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestIdentityBearer(t *testing.T) {
	app := newApp()
	tok := signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	status, body := do(t, app, "/whoami", map[string]string{"Authorization": "Bearer " + tok})
	if status != 200 || body != "user-1" {
		t.Fatalf("got %d %q", status, body)
	}

	tok = signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"uid": "user-2", "sub": "other"})
	if _, body := do(t, app, "/whoami", map[string]string{"Authorization": "Bearer " + tok}); body != "user-2" {
		t.Fatalf("uid claim should win, got %q", body)
	}
}

func TestIdentityRejectsBadTokens(t *testing.T) {
	app := newApp()
	wrongKey := signed(t, jwt.SigningMethodHS256, []byte("nope"), jwt.MapClaims{"sub": "u"})
	expired := signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "u",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	for name, tok := range map[string]string{"wrong key": wrongKey, "expired": expired, "garbage": "abc"} {
		if status, _ := do(t, app, "/whoami", map[string]string{"Authorization": "Bearer " + tok}); status != 401 {
			t.Errorf("%s: status %d, want 401", name, status)
		}
	}
}

func TestIdentityGatewayHeaders(t *testing.T) {
	app := newApp()
	_, body := do(t, app, "/whoami", map[string]string{
		"X-Gateway-Token": "gw-token",
		"X-User-ID":       "gw-user",
		"X-User-Roles":    "admin, mentor",
	})
	if body != "gw-user" {
		t.Fatalf("got %q", body)
	}
	// headers without the gateway token are ignored
	_, body = do(t, app, "/whoami", map[string]string{"X-User-ID": "spoofed"})
	if body != "" {
		t.Fatalf("spoofed identity accepted: %q", body)
	}
}

func TestRequireAuth(t *testing.T) {
	app := newApp()
	if status, _ := do(t, app, "/private", nil); status != 401 {
		t.Fatalf("anonymous status %d", status)
	}
}

func TestSSEAuthQueryToken(t *testing.T) {
	app := newApp()
	tok := signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "sse-user"})
	status, body := do(t, app, "/stream?token="+tok, nil)
	if status != 200 || body != "sse-user" {
		t.Fatalf("got %d %q", status, body)
	}
	if status, _ := do(t, app, "/stream", nil); status != 401 {
		t.Fatalf("missing token status %d", status)
	}
}

func TestServiceTokenAuth(t *testing.T) {
	app := newApp()
	if status, _ := do(t, app, "/internal", map[string]string{"X-Service-Token": "svc"}); status != 200 {
		t.Fatalf("valid token status %d", status)
	}
	if status, _ := do(t, app, "/internal", map[string]string{"X-Service-Token": "bad"}); status != 401 {
		t.Fatalf("invalid token status %d", status)
	}
	if ServiceTokenAuth("") == nil {
		t.Fatal("handler expected")
	}
}

func TestSplitRoles(t *testing.T) {
	got := splitRoles(" a, ,b ")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("splitRoles = %v", got)
	}
}
