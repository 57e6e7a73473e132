package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pocketbook/pocketbook/internal/identity"
)

// OwnerLocal is the fiber locals key carrying the resolved owner id.
const OwnerLocal = "owner_id"

// OwnerAuth resolves the owner id from a bearer token minted by the
// identity provider and stores it in locals. The core trusts the verified
// sub claim; it does not itself authenticate.
func OwnerAuth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		ownerID, err := identity.OwnerFromToken(token, secret)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals(OwnerLocal, ownerID)
		return c.Next()
	}
}

// Owner returns the owner id resolved by OwnerAuth, or empty when absent.
func Owner(c *fiber.Ctx) string {
	ownerID, _ := c.Locals(OwnerLocal).(string)
	return ownerID
}
