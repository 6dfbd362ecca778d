package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cellar/internal/models"
	"cellar/internal/repositories"
	"cellar/internal/services"

	"github.com/gofiber/fiber/v2"
)

var errEmptyBody = errors.New("request must contain a body")

// respond writes the {message, data} envelope.
func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

// badRequest reports a request that could not be read at all.
func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Error",
		"error":   err.Error(),
	})
}

// fail translates a service error into a status code.
func fail(c *fiber.Ctx, logger *slog.Logger, err error) error {
	var fieldErr *models.FieldError
	switch {
	case errors.As(err, &fieldErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Error",
			"error":   err.Error(),
			"field":   fieldErr.Field,
		})
	case errors.Is(err, services.ErrKeyMismatch):
		return badRequest(c, err)
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not Found",
			"error":   err.Error(),
		})
	}

	logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Error",
		"error":   err.Error(),
	})
}

// decodeObject reads the request body as a JSON object. Numbers stay
// json.Number so integral values are not widened to float64.
func decodeObject(c *fiber.Ctx) (map[string]any, error) {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("error attempting to decode the provided JSON: %w", err)
	}
	if raw == nil {
		return nil, errors.New("request body must be a JSON object")
	}
	return raw, nil
}

// datesAsEpoch reports whether dates render as epoch milliseconds.
// ?dates=iso switches to strings.
func datesAsEpoch(c *fiber.Ctx) bool {
	return !strings.EqualFold(c.Query("dates"), "iso")
}
