package server

import (
	"avatio/internal/models"
	"avatio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IssueShopCode handles POST /api/me/shops/code
// @Summary Issue a shop verification code
// @Description The code must appear on the shop page within 30 minutes.
// @Tags shops
// @Accept json
// @Produce json
// @Param request body service.ShopInput true "Shop"
// @Success 200 {object} service.ShopCode
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me/shops/code [post]
func (s *Server) IssueShopCode(c *fiber.Ctx) error {
	var req service.ShopInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	code, err := s.shopService.IssueCode(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(code)
}

// VerifyShop handles POST /api/me/shops/verify
func (s *Server) VerifyShop(c *fiber.Ctx) error {
	var req service.ShopInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	shop, err := s.shopService.Verify(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"platform": shop.Platform, "shopId": shop.ShopID})
}
