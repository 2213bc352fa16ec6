package middleware

import (
	"github.com/go-arcade/invitekit/pkg/id"
	"github.com/gofiber/fiber/v2"
)

// RequestMiddleware propagates or assigns an X-Request-Id.
func RequestMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestId := c.Get(fiber.HeaderXRequestID)
		if requestId == "" {
			requestId = id.GetUlid()
		}
		c.Set(fiber.HeaderXRequestID, requestId)
		c.Locals(REQUEST_ID, requestId)
		return c.Next()
	}
}
