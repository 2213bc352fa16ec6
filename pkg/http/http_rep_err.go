package http

import (
	"github.com/gofiber/fiber/v2"
)

type ResponseErr struct {
	ErrCode int    `json:"code"`
	ErrMsg  string `json:"errMsg"`
	Path    string `json:"path,omitempty"`
}

// WithRepErr answers with the registered message of rep.
func WithRepErr(c *fiber.Ctx, rep *Response, path string) error {
	return WithRepErrMsg(c, rep.Code, rep.Msg, path)
}

// WithRepErrMsg answers with a custom message; the HTTP status follows code.
func WithRepErrMsg(c *fiber.Ctx, code int, errMsg string, path string) error {
	return c.Status(StatusOf(code)).JSON(ResponseErr{
		ErrCode: code,
		ErrMsg:  errMsg,
		Path:    path,
	})
}
