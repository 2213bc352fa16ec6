package middleware

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

var (
	allowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	allowHeaders  = "Origin, X-Requested-With, Content-Type, Accept, Authorization, X-Identity-Store-Id, X-Request-Id"
	exposeHeaders = "Content-Length, Content-Type, X-Request-Id"
)

// CorsMiddleware allows the admin and claim front-ends. Credentials are
// only allowed for an explicit origin list.
func CorsMiddleware(origins []string) fiber.Handler {
	wildcard := len(origins) == 0 || slices.Contains(origins, "*")
	conf := cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     allowMethods,
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    exposeHeaders,
		AllowCredentials: false,
	}
	if !wildcard {
		conf.AllowOrigins = strings.Join(origins, ",")
		conf.AllowCredentials = true
	}
	return cors.New(conf)
}
