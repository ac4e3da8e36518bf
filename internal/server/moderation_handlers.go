package server

import (
	"context"
	"strings"

	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/repository"
	"avatio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AdminSearchUsers handles GET /api/admin/users?q=
func (s *Server) AdminSearchUsers(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPageLimit)
	page, err := s.moderationService.SearchUsers(c.UserContext(), strings.TrimSpace(c.Query("q")), p.Page, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(page)
}

// BanUser handles POST /api/admin/users/:id/ban
// @Summary Ban a user
// @Description Banned users keep read access but every write answers 403. Admins cannot ban themselves.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body service.BanInput false "Ban reason"
// @Success 200 {string} string "null"
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/ban [post]
func (s *Server) BanUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.BanInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	if err := s.moderationService.Ban(c.UserContext(), middleware.SessionFrom(c).ActorID(), id, req); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// UnbanUser handles POST /api/admin/users/:id/unban
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.moderationService.Unban(c.UserContext(), middleware.SessionFrom(c).ActorID(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// SetUserRole handles PATCH /api/admin/users/:id/role
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.RoleInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	if err := s.moderationService.SetRole(c.UserContext(), middleware.SessionFrom(c).ActorID(), id, req); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

func (s *Server) badgeAction(c *fiber.Ctx, fn func(ctx context.Context, actorID *uint, targetID uint, kind models.BadgeKind) error) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	kind := models.BadgeKind(strings.ToLower(c.Params("kind")))

	if err := fn(c.UserContext(), middleware.SessionFrom(c).ActorID(), id, kind); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// GrantBadge handles POST /api/admin/users/:id/badges/:kind
func (s *Server) GrantBadge(c *fiber.Ctx) error {
	return s.badgeAction(c, s.moderationService.GrantBadge)
}

// RevokeBadge handles DELETE /api/admin/users/:id/badges/:kind
func (s *Server) RevokeBadge(c *fiber.Ctx) error {
	return s.badgeAction(c, s.moderationService.RevokeBadge)
}

// SetSetupVisibility handles PATCH /api/admin/setups/:id/visibility
func (s *Server) SetSetupVisibility(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.VisibilityInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	if err := s.moderationService.SetSetupVisibility(c.UserContext(), middleware.SessionFrom(c).ActorID(), id, req); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// ListAuditLogs handles GET /api/admin/audit-logs?action=&targetType=
func (s *Server) ListAuditLogs(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	page, err := s.moderationService.ListAuditLogs(c.UserContext(), repository.AuditFilter{
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("targetType")),
		Page:       p.Page,
		Limit:      p.Limit,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(page)
}
