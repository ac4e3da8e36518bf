package server

import (
	"strings"

	"avatio/internal/models"
	"avatio/internal/repository"
	"avatio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListSetups handles GET /api/setups
// @Summary List setups
// @Description Newest setups first. Hidden setups and setups of muted users are excluded.
// @Tags setups
// @Produce json
// @Param q query string false "Search in name and description"
// @Param tag query string false "Only setups carrying this tag"
// @Param userId query int false "Only setups owned by this user"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} models.Paginated[models.Setup]
// @Failure 400 {object} models.ErrorResponse
// @Router /setups [get]
func (s *Server) ListSetups(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPageLimit)
	userID := c.QueryInt("userId", 0)
	if userID < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid user ID"))
	}

	page, err := s.setupService.List(c.UserContext(), repository.SetupFilter{
		Query:    strings.TrimSpace(c.Query("q")),
		Tag:      strings.ToLower(strings.TrimSpace(c.Query("tag"))),
		UserID:   uint(userID),
		ViewerID: currentUserID(c),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPublic(c, publicCDNMaxAge, publicClientMaxAge, page)
}

// GetSetup handles GET /api/setups/:id
// @Summary Get a setup
// @Tags setups
// @Produce json
// @Param id path int true "Setup ID"
// @Success 200 {object} models.Setup
// @Failure 404 {object} models.ErrorResponse
// @Router /setups/{id} [get]
func (s *Server) GetSetup(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	setup, err := s.setupService.Get(c.UserContext(), id, viewerOf(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPublic(c, publicCDNMaxAge, publicClientMaxAge, setup)
}

// CreateSetup handles POST /api/setups
// @Summary Publish a setup
// @Description Creates the setup with its items, images, tags and co-authors in one transaction. A linked draft is consumed.
// @Tags setups
// @Accept json
// @Produce json
// @Param request body service.SetupInput true "Setup"
// @Success 200 {object} IDResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /setups [post]
func (s *Server) CreateSetup(c *fiber.Ctx) error {
	var req service.SetupInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	id, err := s.setupService.Create(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(IDResponse{ID: id})
}

// UpdateSetup handles PATCH /api/setups/:id
func (s *Server) UpdateSetup(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.SetupInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	if err := s.setupService.Update(c.UserContext(), currentUserID(c), id, req); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// DeleteSetup handles DELETE /api/setups/:id
// @Summary Delete a setup
// @Description Owners delete their own setups, admins any. Storage cleanup is best effort and reported as a warning.
// @Tags setups
// @Produce json
// @Param id path int true "Setup ID"
// @Success 200 {object} service.DeleteSetupResult
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /setups/{id} [delete]
func (s *Server) DeleteSetup(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.setupService.Delete(c.UserContext(), viewerOf(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if result.Warning != "" {
		return c.JSON(result)
	}
	return respondNull(c)
}

// ListDrafts handles GET /api/setups/drafts
func (s *Server) ListDrafts(c *fiber.Ctx) error {
	drafts, err := s.setupService.ListDrafts(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(drafts)
}

// CreateDraft handles POST /api/setups/drafts
func (s *Server) CreateDraft(c *fiber.Ctx) error {
	var req service.DraftInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	id, err := s.setupService.CreateDraft(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(IDResponse{ID: id})
}

// UpdateDraft handles PUT /api/setups/drafts/:id
func (s *Server) UpdateDraft(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.DraftInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	if err := s.setupService.UpdateDraft(c.UserContext(), currentUserID(c), id, req); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// DeleteDraft handles DELETE /api/setups/drafts/:id
func (s *Server) DeleteDraft(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.setupService.DeleteDraft(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}
