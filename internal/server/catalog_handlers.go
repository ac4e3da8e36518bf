package server

import (
	"strings"

	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	itemCDNMaxAge    = 5
	itemClientMaxAge = 5
	tagsCDNMaxAge    = 300
	tagsClientMaxAge = 60
	defaultTagLimit  = 30
)

// SearchItems handles GET /api/items?q=&platform=
func (s *Server) SearchItems(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPageLimit)

	page, err := s.catalogService.SearchItems(c.UserContext(),
		c.Query("q"), strings.ToLower(strings.TrimSpace(c.Query("platform"))), p.Page, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPublic(c, itemCDNMaxAge, itemClientMaxAge, page)
}

// GetItem handles GET /api/items/:id
// @Summary Get an item
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} models.Item
// @Failure 404 {object} models.ErrorResponse
// @Router /items/{id} [get]
func (s *Server) GetItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	item, err := s.catalogService.GetItem(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setCacheHeaders(c, itemCDNMaxAge, itemClientMaxAge)
	return c.JSON(item)
}

// ListTags handles GET /api/tags?q=
func (s *Server) ListTags(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultTagLimit)
	if limit <= 0 || limit > maxPaginationLimit {
		limit = defaultTagLimit
	}

	tags, err := s.catalogService.PopularTags(c.UserContext(), c.Query("q"), limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setCacheHeaders(c, tagsCDNMaxAge, tagsClientMaxAge)
	return c.JSON(tags)
}

// AdminUpdateItem handles PATCH /api/admin/items/:id
func (s *Server) AdminUpdateItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.ItemUpdateInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	actor := middleware.SessionFrom(c).ActorID()
	if err := s.catalogService.UpdateItem(c.UserContext(), actor, id, req); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}
