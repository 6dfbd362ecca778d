package handlers

import (
	"fmt"
	"log/slog"

	"cellar/internal/models"
	"cellar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CellarHandler handles HTTP requests for cellar records.
type CellarHandler struct {
	service *services.CellarService
	logger  *slog.Logger
}

// NewCellarHandler creates a new CellarHandler.
func NewCellarHandler(service *services.CellarService, logger *slog.Logger) *CellarHandler {
	return &CellarHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the cellar routes with the Fiber app.
func (h *CellarHandler) RegisterRoutes(router fiber.Router) {
	cellarRoutes := router.Group("/cellar")
	cellarRoutes.Get("/", h.HandleGetRecords)
	cellarRoutes.Post("/", h.HandleCreateRecord)
	cellarRoutes.Get("/tree", h.HandleGetTree)
	cellarRoutes.Put("/tree", h.HandleReplaceBeverage)
	cellarRoutes.Get("/:id/:location", h.HandleGetRecord)
	cellarRoutes.Put("/:id/:location", h.HandleUpdateRecord)
	cellarRoutes.Delete("/:id/:location", h.HandleDeleteRecord)
}

func recordKey(c *fiber.Ctx) models.RecordKey {
	return models.RecordKey{ID: c.Params("id"), Location: c.Params("location")}
}

// HandleGetRecords returns the whole cellar.
func (h *CellarHandler) HandleGetRecords(c *fiber.Ctx) error {
	recs, err := h.service.ListRecords(c.UserContext())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Success", models.ProjectBeverages(recs, datesAsEpoch(c)))
}

// HandleCreateRecord adds a record built from the JSON body.
func (h *CellarHandler) HandleCreateRecord(c *fiber.Ctx) error {
	raw, err := decodeObject(c)
	if err != nil {
		return badRequest(c, err)
	}

	rec, err := h.service.CreateRecord(c.UserContext(), raw)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusCreated, "Created", models.ProjectBeverage(rec, datesAsEpoch(c)))
}

// HandleGetRecord returns one record.
func (h *CellarHandler) HandleGetRecord(c *fiber.Ctx) error {
	rec, err := h.service.GetRecord(c.UserContext(), recordKey(c))
	if err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Success", models.ProjectBeverage(rec, datesAsEpoch(c)))
}

// HandleUpdateRecord replaces one record with the JSON body.
func (h *CellarHandler) HandleUpdateRecord(c *fiber.Ctx) error {
	raw, err := decodeObject(c)
	if err != nil {
		return badRequest(c, err)
	}

	rec, err := h.service.UpdateRecord(c.UserContext(), recordKey(c), raw)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Success", models.ProjectBeverage(rec, datesAsEpoch(c)))
}

// HandleDeleteRecord removes one record.
func (h *CellarHandler) HandleDeleteRecord(c *fiber.Ctx) error {
	key := recordKey(c)
	if err := h.service.DeleteRecord(c.UserContext(), key); err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Success", fmt.Sprintf("%s at %s deleted successfully.", key.ID, key.Location))
}

// HandleGetTree returns the cellar grouped by beverage and vintage.
func (h *CellarHandler) HandleGetTree(c *fiber.Ctx) error {
	tree, err := h.service.Hierarchy(c.UserContext())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Success", models.ProjectHierarchy(tree, datesAsEpoch(c)))
}

// HandleReplaceBeverage replaces one beverage with the nested JSON body.
func (h *CellarHandler) HandleReplaceBeverage(c *fiber.Ctx) error {
	raw, err := decodeObject(c)
	if err != nil {
		return badRequest(c, err)
	}

	recs, err := h.service.ReplaceBeverage(c.UserContext(), raw)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Success", models.ProjectHierarchy(models.BuildHierarchy(recs), datesAsEpoch(c)))
}
