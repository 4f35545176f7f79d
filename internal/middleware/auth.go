package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/carqr-app/carqr-backend/internal/services"
)

// Locals keys set by RequireAuth
const (
	LocalUserID = "userId"
	LocalEmail  = "userEmail"
)

// RequireAuth verifies the bearer token before any handler logic runs.
// Claims land in ctx locals for the handlers downstream.
func RequireAuth(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "No token provided",
				"code":    "UNAUTHORIZED",
			})
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid authorization header",
				"code":    "UNAUTHORIZED",
			})
		}

		claims, err := tokens.ParseToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid or expired token",
				"code":    "UNAUTHORIZED",
			})
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		return c.Next()
	}
}

// UserID reads the authenticated user id stored by RequireAuth
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalUserID).(string); ok {
		return id
	}
	return ""
}
