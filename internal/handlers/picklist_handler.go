package handlers

import (
	"log/slog"

	"cellar/internal/models"
	"cellar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PicklistHandler handles HTTP requests for picklist data.
type PicklistHandler struct {
	service *services.PicklistService
	logger  *slog.Logger
}

// NewPicklistHandler creates a new PicklistHandler.
func NewPicklistHandler(service *services.PicklistService, logger *slog.Logger) *PicklistHandler {
	return &PicklistHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the picklist routes with the Fiber app.
func (h *PicklistHandler) RegisterRoutes(router fiber.Router) {
	picklistRoutes := router.Group("/picklist-data")
	picklistRoutes.Get("/", h.HandleGetPicklists)
	picklistRoutes.Put("/", h.HandleSavePicklist)
	picklistRoutes.Get("/suggestions", h.HandleSuggestPicklists)
	picklistRoutes.Get("/:listName", h.HandleGetPicklist)
}

// HandleGetPicklists returns every picklist.
func (h *PicklistHandler) HandleGetPicklists(c *fiber.Ctx) error {
	lists, err := h.service.List(c.UserContext())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Success", models.ProjectPicklists(lists, datesAsEpoch(c)))
}

// HandleGetPicklist returns one picklist by name.
func (h *PicklistHandler) HandleGetPicklist(c *fiber.Ctx) error {
	p, err := h.service.Get(c.UserContext(), c.Params("listName"))
	if err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Success", models.ProjectPicklist(p, datesAsEpoch(c)))
}

// HandleSavePicklist adds or replaces a picklist.
func (h *PicklistHandler) HandleSavePicklist(c *fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return badRequest(c, errEmptyBody)
	}

	// lastModified is stamped by the service, so it is not read from the body.
	var req struct {
		ListName string                 `json:"listName"`
		Values   []models.PicklistEntry `json:"values"`
	}
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Error parsing picklist body", "error", err)
		return badRequest(c, err)
	}

	saved, err := h.service.Save(c.UserContext(), &models.Picklist{ListName: req.ListName, Values: req.Values})
	if err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Success", models.ProjectPicklist(saved, datesAsEpoch(c)))
}

// HandleSuggestPicklists derives picklists from the current cellar.
func (h *PicklistHandler) HandleSuggestPicklists(c *fiber.Ctx) error {
	lists, err := h.service.Suggest(c.UserContext())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return respond(c, fiber.StatusOK, "Success", models.ProjectPicklists(lists, datesAsEpoch(c)))
}
