package server

import (
	"avatio/internal/cache"
	"avatio/internal/models"
	"avatio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /api/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(models.WithModeration(user))
}

// UpdateMe handles PATCH /api/me
// @Summary Update the caller's profile
// @Description Omitted fields are left unchanged. The bio is sanitized and the handle must be unused.
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {string} string "null"
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me [patch]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	if _, err := s.userService.UpdateProfile(c.UserContext(), currentUserID(c), req); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetProfile(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setCacheHeaders(c, profileCDNMaxAge, profileClientMaxAge)
	return c.JSON(user)
}

// GetUserSetups handles GET /api/users/:id/setups
func (s *Server) GetUserSetups(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)

	page, err := s.userService.ListSetups(c.UserContext(), id, p.Page, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setCacheHeaders(c, int(cache.UserSetupsTTL.Seconds()), publicClientMaxAge)
	return c.JSON(page)
}
