package middleware

import (
	"strings"

	"github.com/go-arcade/invitekit/pkg/http"
	"github.com/go-arcade/invitekit/pkg/http/jwt"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (*jwt.CognitoClaims, error)
}

// AuthorizationMiddleware requires a verified bearer token. Every failure
// answers the same 401.
func AuthorizationMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return http.WithRepErr(c, http.Unauthorized, c.Path())
		}

		claims, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			return http.WithRepErr(c, http.Unauthorized, c.Path())
		}

		log.Debugw("admin request authenticated", "principal", claims.Principal(), "path", c.Path())
		c.Locals(CLAIMS, claims)
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by AuthorizationMiddleware.
func ClaimsFrom(c *fiber.Ctx) *jwt.CognitoClaims {
	claims, _ := c.Locals(CLAIMS).(*jwt.CognitoClaims)
	return claims
}
