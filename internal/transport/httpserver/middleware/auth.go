// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"supplement-catalog-service/internal/domain"
	"supplement-catalog-service/internal/infra/identity"
)

// identityKey is the fiber locals key under which the verified identity
// is stored for downstream handlers.
const identityKey = "identity"

// RequireAuth returns a middleware that verifies the Bearer token on the
// request and stores the resulting identity in the request locals. The
// token's content is never inspected locally; verification is delegated
// to the identity provider in full.
func RequireAuth(verifier domain.IdentityVerifier, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
				"code":  "UNAUTHORIZED",
			})
		}

		ident, err := verifier.Verify(c.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid token",
					"code":  "UNAUTHORIZED",
				})
			}

			logger.Error("identity verification failed", zap.Error(err))

			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "identity provider unavailable",
				"code":  "IDENTITY_UNAVAILABLE",
			})
		}

		c.Locals(identityKey, ident)

		return c.Next()
	}
}

// IdentityFromCtx returns the verified identity stored by RequireAuth,
// or nil when the request was not authenticated.
func IdentityFromCtx(c *fiber.Ctx) *domain.Identity {
	ident, _ := c.Locals(identityKey).(*domain.Identity)

	return ident
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
