package server

import (
	"bytes"
	"encoding/json"

	"avatio/internal/models"
	"avatio/internal/validation"

	"github.com/gofiber/fiber/v2"
)

var errInvalidBody = models.NewValidationError("Invalid request body")

// bindBody decodes the JSON body into dst and validates it. Fields of dst
// tagged `sanitize:"html"` are cleaned, every string leaf beneath them,
// before decoding. On failure it writes a 400
// response and returns errResponseWritten; nothing has been written to the
// database at that point.
func bindBody(c *fiber.Ctx, dst any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		body = []byte("{}")
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return writeBindError(c, errInvalidBody)
	}
	if _, ok := raw.(map[string]any); !ok {
		return writeBindError(c, errInvalidBody)
	}
	raw = validation.SanitizeTagged(raw, dst)

	clean, err := json.Marshal(raw)
	if err != nil {
		return writeBindError(c, errInvalidBody)
	}
	if err := json.Unmarshal(clean, dst); err != nil {
		return writeBindError(c, errInvalidBody)
	}

	if err := validation.Struct(dst); err != nil {
		return writeBindError(c, err)
	}
	return nil
}

func writeBindError(c *fiber.Ctx, err error) error {
	_ = models.RespondWithError(c, fiber.StatusBadRequest, err)
	return errResponseWritten
}
