package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/GoAD-Admin/GoAD-Admin/internal/auth"
	"github.com/GoAD-Admin/GoAD-Admin/internal/web/handler"
	"github.com/GoAD-Admin/GoAD-Admin/internal/web/session"
)

// publicPrefixes are reachable without a session.
var publicPrefixes = []string{
	"/login",
	"/logout",
	"/healthz",
	"/metrics",
}

// Middleware is a Fiber middleware that checks for a valid session.
func Middleware(c *fiber.Ctx) error {
	if IsPublicPath(c) {
		return c.Next()
	}

	sessionID := c.Cookies(handler.SessionCookieName)
	if sessionID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil || sessData.Username == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	c.Locals(handler.SessionLocalsKey, sessData)

	return c.Next()
}

// RequireSuperAdmin rejects requests whose session does not carry the
// SuperAdmin role. It must run after Middleware.
func RequireSuperAdmin(c *fiber.Ctx) error {
	sessData := SessionData(c)
	if sessData == nil || sessData.Role != auth.RoleSuperAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "super admin role required",
		})
	}

	return c.Next()
}

// SessionData returns the session data placed in locals by Middleware, or
// nil when the request is unauthenticated.
func SessionData(c *fiber.Ctx) *session.Data {
	sessData, ok := c.Locals(handler.SessionLocalsKey).(*session.Data)
	if !ok {
		return nil
	}

	return sessData
}

// IsPublicPath checks if the current request targets a public endpoint.
func IsPublicPath(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())

	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(originalURL, prefix) {
			return true
		}
	}

	return false
}
