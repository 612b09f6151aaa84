package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// NoStore marks responses as uncacheable. Auth responses carry tokens and
// identity data that must not land in shared caches.
func NoStore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		c.Set(fiber.HeaderCacheControl, "no-store")
		c.Set(fiber.HeaderPragma, "no-cache")

		return err
	}
}
