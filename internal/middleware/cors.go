package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS lets the whitelisted UI origins call the API. With no origins
// configured no CORS headers are sent, so browsers only allow same-origin
// calls.
func CORS(origins []string) fiber.Handler {
	var allowed []string
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return cors.New(cors.Config{
		AllowOrigins: strings.Join(allowed, ","),
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodPut,
			fiber.MethodDelete,
			fiber.MethodOptions,
		}, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
	})
}
