package middleware

import (
	"runtime/debug"

	"github.com/go-arcade/invitekit/pkg/http"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// ExceptionMiddleware turns a handler panic into a 500 envelope.
func ExceptionMiddleware(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("panic in handler", "path", c.Path(), "panic", r, "stack", string(debug.Stack()))
			err = http.WithRepErr(c, http.InternalError, c.Path())
		}
	}()

	return c.Next()
}
