package server

import (
	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListNotifications handles GET /api/notifications?unreadOnly=
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	unreadOnly, err := parseOptionalBool(c, "unreadOnly")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)

	page, err := s.notificationService.List(c.UserContext(), currentUserID(c),
		unreadOnly != nil && *unreadOnly, p.Page, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(page)
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.notificationService.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(fiber.Map{"count": count})
}

// SetNotificationRead handles PATCH /api/notifications/:id
// @Summary Mark a notification read or unread
// @Description Another user's notification answers 404.
// @Tags notifications
// @Accept json
// @Produce json
// @Param id path int true "Notification ID"
// @Param request body service.ReadInput true "Read state"
// @Success 200 {string} string "null"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id} [patch]
func (s *Server) SetNotificationRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.ReadInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	if err := s.notificationService.SetRead(c.UserContext(), currentUserID(c), id, *req.Read); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	updated, err := s.notificationService.MarkAllRead(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// SendNotification handles POST /api/admin/notifications
func (s *Server) SendNotification(c *fiber.Ctx) error {
	var req service.SendNotificationInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	id, err := s.moderationService.SendNotification(c.UserContext(), middleware.SessionFrom(c).ActorID(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(IDResponse{ID: id})
}
