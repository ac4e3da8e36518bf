package server

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed page/limit query parameters.
type Pagination struct {
	Page  int
	Limit int
}

const (
	maxPaginationLimit  = 100
	defaultPageLimit    = 20
	publicCDNMaxAge     = 60
	publicClientMaxAge  = 30
	profileCDNMaxAge    = 300
	profileClientMaxAge = 60
)

// parsePagination extracts page and limit query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	return Pagination{
		Page:  page,
		Limit: limit,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "userId" -> "Invalid user ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseOptionalBool reads a "true"/"false" query flag. Absent means nil.
func parseOptionalBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	switch strings.ToLower(raw) {
	case "":
		return nil, nil
	case "true", "1":
		v := true
		return &v, nil
	case "false", "0":
		v := false
		return &v, nil
	}
	_ = models.RespondWithError(c, fiber.StatusBadRequest,
		models.NewValidationError(fmt.Sprintf("Invalid %s", key)))
	return nil, errResponseWritten
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "setupId" -> "setup ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// setCacheHeaders marks a public response cacheable by the CDN and the client.
func setCacheHeaders(c *fiber.Ctx, cdnMaxAge, clientMaxAge int) {
	c.Set("CDN-Cache-Control", fmt.Sprintf("max-age=%d", cdnMaxAge))
	c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", clientMaxAge))
}

// setPrivate marks a personalised response as uncacheable.
func setPrivate(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, "private, no-store")
}

// respondPublic sets public cache headers unless the caller is signed in,
// in which case the body may be personalised.
func respondPublic(c *fiber.Ctx, cdnMaxAge, clientMaxAge int, body any) error {
	if middleware.SessionFrom(c).Authenticated() {
		setPrivate(c)
	} else {
		setCacheHeaders(c, cdnMaxAge, clientMaxAge)
	}
	return c.JSON(body)
}

// currentUserID returns the id of the signed-in caller, 0 when anonymous.
func currentUserID(c *fiber.Ctx) uint {
	return middleware.SessionFrom(c).UserID
}

func viewerOf(c *fiber.Ctx) service.Viewer {
	sess := middleware.SessionFrom(c)
	return service.Viewer{
		UserID:  sess.UserID,
		IsAdmin: sess.IsAdmin() || sess.Static == middleware.StaticAdmin,
	}
}

// respondNull answers a successful mutation that has nothing to return.
func respondNull(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(nil)
}

// IDResponse is returned by creates.
type IDResponse struct {
	ID uint `json:"id"`
}
