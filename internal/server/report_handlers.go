package server

import (
	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ReportSetup handles POST /api/reports/setups
// @Summary Report a setup
// @Description At least one reason must be set.
// @Tags reports
// @Accept json
// @Produce json
// @Param request body service.SetupReportInput true "Report"
// @Success 200 {string} string "null"
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /reports/setups [post]
func (s *Server) ReportSetup(c *fiber.Ctx) error {
	var req service.SetupReportInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	if err := s.reportService.ReportSetup(c.UserContext(), currentUserID(c), req); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// ReportItem handles POST /api/reports/items
func (s *Server) ReportItem(c *fiber.Ctx) error {
	var req service.ItemReportInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	if err := s.reportService.ReportItem(c.UserContext(), currentUserID(c), req); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

// ReportUser handles POST /api/reports/users
func (s *Server) ReportUser(c *fiber.Ctx) error {
	var req service.UserReportInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	if err := s.reportService.ReportUser(c.UserContext(), currentUserID(c), req); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}

func reportKindParam(c *fiber.Ctx) (models.ReportKind, error) {
	kind := models.ReportKind(c.Params("kind"))
	if !kind.Valid() {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Report type", c.Params("kind")))
		return "", errResponseWritten
	}
	return kind, nil
}

// ListReports handles GET /api/admin/reports/:kind?resolved=
func (s *Server) ListReports(c *fiber.Ctx) error {
	kind, err := reportKindParam(c)
	if err != nil {
		return nil
	}
	resolved, err := parseOptionalBool(c, "resolved")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)

	page, err := s.reportService.ListReports(c.UserContext(), kind, resolved, p.Page, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	setPrivate(c)
	return c.JSON(page)
}

// ResolveReport handles PATCH /api/admin/reports/:kind/:id
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	kind, err := reportKindParam(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.ResolveInput
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	actor := middleware.SessionFrom(c).ActorID()
	if err := s.reportService.Resolve(c.UserContext(), actor, kind, id, *req.IsResolved); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondNull(c)
}
