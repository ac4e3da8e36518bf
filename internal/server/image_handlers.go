package server

import (
	"io"

	"avatio/internal/models"
	"avatio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/images?target=setup|avatar
// @Summary Upload an image
// @Description Stores a WebP re-encoding of the uploaded image and returns its public URL and theme colors.
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param target query string true "setup or avatar"
// @Param file formData file true "Image file"
// @Success 200 {object} service.UploadedImage
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /images [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(io.LimitReader(src, s.imageService.MaxUploadSizeBytes()+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	uploaded, err := s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      currentUserID(c),
		Target:      c.Query("target", service.ImageTargetSetup),
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(uploaded)
}
