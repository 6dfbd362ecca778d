// Package server assembles the HTTP API.
package server

import (
	"log/slog"
	"time"

	"cellar/internal/handlers"
	"cellar/internal/metrics"
	"cellar/internal/middleware"
	"cellar/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Deps are the collaborators of the HTTP API.
type Deps struct {
	Cellar    *services.CellarService
	Picklists *services.PicklistService
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Origins   []string
	// AccessLog enables the request logger.
	AccessLog bool
}

// NewApp builds the Fiber app serving /api/v1, /health and /metrics.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "cellar",
		UnescapePath:          true,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(fiberlogger.New()) // Request logger
	}

	api := app.Group("/api", middleware.CORS(d.Origins))
	apiV1 := api.Group("/v1")
	handlers.NewCellarHandler(d.Cellar, d.Logger).RegisterRoutes(apiV1)
	handlers.NewPicklistHandler(d.Picklists, d.Logger).RegisterRoutes(apiV1)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not Found"})
	})

	return app
}
