package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	UserIDHeader = "X-User-ID"
	userIDKey    = "userID"
)

// RequireUser reads the authenticated user id set by the upstream auth
// proxy. Requests without one are rejected.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Get(UserIDHeader), 10, 64)
		if err != nil || id == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"success": false,
			})
		}

		c.Locals(userIDKey, uint(id))
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) uint {
	id, _ := c.Locals(userIDKey).(uint)
	return id
}
