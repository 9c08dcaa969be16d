// middleware/identity.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// IdentityContextMiddleware extracts the caller identity forwarded by the
// Gateway. Every state-changing escrow route needs one: the registry
// compares identities for equality only, so the header value stays opaque.
func IdentityContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [IDENTITY] X-User-ID required but missing on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		// Attach to ctx for handlers
		c.Locals("user_id", userID)

		return c.Next()
	}
}
