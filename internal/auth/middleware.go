package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/users"
)

// Middleware validates the bearer token and loads the full user
// (role and permissions) onto the request, so downstream checks never
// re-derive authorization state from the token itself.
func Middleware(secret string, userStore *users.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return apperr.Unauthorized("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperr.Unauthorized("Invalid auth header format")
		}

		claims, err := ParseAccessToken(parts[1], secret)
		if err != nil {
			return apperr.Unauthorized("Invalid or expired token")
		}

		user, err := userStore.GetByID(c.Context(), claims.Subject)
		if err != nil {
			return apperr.Unauthorized("Unknown user")
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// RequireAdmin gates a route on the admin role. This is the coarse
// resource-level check; field-level checks come after it.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return apperr.Unauthorized("Missing auth token")
		}
		if !user.IsAdmin() {
			return apperr.Forbidden("Admin access required")
		}
		return c.Next()
	}
}

// GetUser extracts the authenticated user from a Fiber context.
func GetUser(c *fiber.Ctx) *users.User {
	user, _ := c.Locals("user").(*users.User)
	return user
}
