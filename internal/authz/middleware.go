package authz

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/web/session"
)

// RequireAccess creates Fiber middleware that authorizes the current
// request against the session user's role: the request's (method, path)
// pair must match one of the role's permissions.
func RequireAccess(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get session cookie
		sessionID := c.Cookies("session")
		if sessionID == "" {
			log.Error().Msg("No session cookie found")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		// Read session data
		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil {
			log.Error().Err(err).Msg("Failed to read session")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		// Check if the session is valid
		if sessionData.User.ID == 0 {
			log.Error().Msg("Invalid session data")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		// Check if the user's role permits the request
		allowed, err := authService.IsAuthorized(sessionData.User.RoleID, c.Method(), c.Path())
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).
				Str("method", c.Method()).Str("path", c.Path()).
				Msg("Failed to check route authorization")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if !allowed {
			log.Warn().Uint64("user_id", sessionData.User.ID).
				Str("method", c.Method()).Str("path", c.Path()).
				Msg("User role lacks a matching permission")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		return c.Next()
	}
}

// AddMenuToLocals is a Fiber middleware that resolves module visibility
// for the session user's role and adds it to fiber.Locals, so templates
// can render the menu. Visibility is recomputed per request; no cache.
func AddMenuToLocals(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies("session")
		if sessionID == "" {
			// Not authenticated, continue without a menu
			return c.Next()
		}

		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil {
			// Invalid session, continue without a menu
			return c.Next()
		}

		if sessionData.User.ID == 0 {
			return c.Next()
		}

		visibility, err := authService.VisibilityForRole(sessionData.User.RoleID)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).
				Msg("Failed to resolve module visibility")

			return c.Next()
		}

		c.Locals("Menu", visibility)

		return c.Next()
	}
}
