package server

import (
	"avatio/internal/models"
	"avatio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PreviewUnusedImages handles GET /api/cron/unused-images
// @Summary Preview the unused-image sweep
// @Description Lists unreferenced objects older than the grace window without deleting them.
// @Tags cron
// @Produce json
// @Success 200 {object} service.SweepReport
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /cron/unused-images [get]
func (s *Server) PreviewUnusedImages(c *fiber.Ctx) error {
	return s.runSweep(c, true)
}

// DeleteUnusedImages handles DELETE /api/cron/unused-images
// @Summary Run the unused-image sweep
// @Description Deletes unreferenced objects older than the grace window. Per-object failures are listed under failed.
// @Tags cron
// @Produce json
// @Success 200 {object} service.SweepReport
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /cron/unused-images [delete]
func (s *Server) DeleteUnusedImages(c *fiber.Ctx) error {
	return s.runSweep(c, false)
}

func (s *Server) runSweep(c *fiber.Ctx, dryRun bool) error {
	report, err := s.sweepService.Run(c.UserContext(), service.SweepOptions{DryRun: dryRun})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(report)
}
