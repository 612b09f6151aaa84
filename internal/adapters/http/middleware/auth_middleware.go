package middleware

import (
	"strings"

	"donorhub/internal/core/domain"
	"donorhub/internal/core/services"
	"donorhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// identityKey is the c.Locals key holding the authenticated *domain.Identity
const identityKey = "identity"

// bearerToken reads the access token from the Authorization header, falling
// back to the access_token cookie for browser clients
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		if token := strings.TrimSpace(authHeader[7:]); token != "" {
			return token
		}
	}
	return c.Cookies("access_token")
}

// Guard turns a guard check into middleware. The identity it returns is
// stored for handlers; any failure ends the request.
func Guard(check services.Check) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return response.FromError(c, domain.ErrUnauthenticated)
		}

		identity, err := check(c.UserContext(), token)
		if err != nil {
			return response.FromError(c, err)
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// OptionalAuth doesn't require auth but sets the identity if a valid token is present
func OptionalAuth(guard *services.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity := guard.OptionalIdentity(c.UserContext(), bearerToken(c)); identity != nil {
			c.Locals(identityKey, identity)
		}
		return c.Next()
	}
}

// CurrentIdentity returns the identity stored by Guard or OptionalAuth, or nil
func CurrentIdentity(c *fiber.Ctx) *domain.Identity {
	identity, _ := c.Locals(identityKey).(*domain.Identity)
	return identity
}
