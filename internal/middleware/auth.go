package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kavyp12/carrer-guide-new-one/internal/services"
)

const userIDKey = "userID"

// RequireUser validates the bearer token and stores the verified user ID in
// the request locals.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization header",
			})
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals(userIDKey, claims.UserID)
		return c.Next()
	}
}

// UserID returns the verified identity set by RequireUser, or "".
func UserID(c *fiber.Ctx) string {
	if v, ok := c.Locals(userIDKey).(string); ok {
		return v
	}
	return ""
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
