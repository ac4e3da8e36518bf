package server

import (
	"context"

	"avatio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// pairAction runs a relation write between the caller and the :id target.
func (s *Server) pairAction(c *fiber.Ctx, fn func(ctx context.Context, actorID, targetID uint) error) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := fn(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// BookmarkSetup handles POST /api/setups/:id/bookmark
func (s *Server) BookmarkSetup(c *fiber.Ctx) error {
	return s.pairAction(c, s.relationService.Bookmark)
}

// RemoveBookmark handles DELETE /api/setups/:id/bookmark
func (s *Server) RemoveBookmark(c *fiber.Ctx) error {
	return s.pairAction(c, s.relationService.RemoveBookmark)
}

// ListBookmarks handles GET /api/me/bookmarks
func (s *Server) ListBookmarks(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPageLimit)
	page, err := s.relationService.ListBookmarks(c.UserContext(), currentUserID(c), p.Page, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(page)
}

// FollowUser handles POST /api/users/:id/follow
// @Summary Follow a user
// @Description Following twice is a no-op. The followee is notified the first time.
// @Tags relations
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {string} string "null"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	return s.pairAction(c, s.relationService.Follow)
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	return s.pairAction(c, s.relationService.Unfollow)
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.relationService.Followers(c.UserContext(), id, p.Page, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.relationService.Following(c.UserContext(), id, p.Page, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// MuteUser handles POST /api/users/:id/mute
func (s *Server) MuteUser(c *fiber.Ctx) error {
	return s.pairAction(c, s.relationService.Mute)
}

// UnmuteUser handles DELETE /api/users/:id/mute
func (s *Server) UnmuteUser(c *fiber.Ctx) error {
	return s.pairAction(c, s.relationService.Unmute)
}

// ListMutes handles GET /api/me/mutes
func (s *Server) ListMutes(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPageLimit)
	page, err := s.relationService.ListMutes(c.UserContext(), currentUserID(c), p.Page, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(page)
}
