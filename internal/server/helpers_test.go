package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"avatio/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// --- humanizeParam (pure function, no HTTP) ---

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"setupId", "setup ID"},
		{"reportedUserId", "reported user ID"},
		{"kind", "kind"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

// --- parsePagination ---

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, 25)
		return c.JSON(fiber.Map{"page": p.Page, "limit": p.Limit})
	})

	tests := []struct {
		query     string
		wantPage  float64
		wantLimit float64
	}{
		{"", 1, 25},
		{"?page=3&limit=10", 3, 10},
		{"?page=0&limit=0", 1, 25},
		{"?page=-2&limit=-5", 1, 25},
		{"?limit=1000", 1, 100},
		{"?page=abc", 1, 25},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantPage, body["page"])
			assert.Equal(t, tt.wantLimit, body["limit"])
		})
	}
}

// --- parseID ---

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		value   string
		status  int
		wantMsg string
	}{
		{"valid", "id", "42", http.StatusOK, ""},
		{"non numeric", "id", "abc", http.StatusBadRequest, "Invalid ID"},
		{"zero", "id", "0", http.StatusBadRequest, "Invalid ID"},
		{"negative", "userId", "-1", http.StatusBadRequest, "Invalid user ID"},
		{"context label", "setupId", "x", http.StatusBadRequest, "Invalid setup ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/items/:"+tt.param, func(c *fiber.Ctx) error {
				id, err := parseID(c, tt.param)
				if err != nil {
					return nil
				}
				return c.JSON(IDResponse{ID: id})
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/"+tt.value, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.wantMsg == "" {
				return
			}
			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantMsg, body.Error.Message)
			assert.Equal(t, models.CodeValidation, body.Error.Code)
		})
	}
}

// --- parseOptionalBool ---

func TestParseOptionalBool(t *testing.T) {
	app := fiber.New()
	app.Get("/flag", func(c *fiber.Ctx) error {
		v, err := parseOptionalBool(c, "resolved")
		if err != nil {
			return nil
		}
		if v == nil {
			return c.SendString("nil")
		}
		return c.SendString(strconv.FormatBool(*v))
	})

	tests := []struct {
		query  string
		status int
		body   string
	}{
		{"", http.StatusOK, "nil"},
		{"?resolved=true", http.StatusOK, "true"},
		{"?resolved=0", http.StatusOK, "false"},
		{"?resolved=maybe", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/flag"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				assert.Equal(t, tt.body, readBody(t, resp))
			}
		})
	}
}

// --- bindBody ---

type bindNote struct {
	Text string `json:"text" sanitize:"html"`
}

type bindTarget struct {
	Name        string     `json:"name" validate:"required,max=16"`
	Description string     `json:"description" sanitize:"html"`
	Notes       []bindNote `json:"notes"`
}

func TestBindBody(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		status    int
		wantMsg   string
		wantName  string
		wantDesc  string
		wantNotes []string
	}{
		{"valid", `{"name":"ok","description":"plain"}`, http.StatusOK, "", "ok", "plain", nil},
		{"malformed", `{"name":`, http.StatusBadRequest, "Invalid request body", "", "", nil},
		{"array body", `["name"]`, http.StatusBadRequest, "Invalid request body", "", "", nil},
		{"empty body fails required", ``, http.StatusBadRequest, "name is required", "", "", nil},
		{"too long", `{"name":"much too long for this"}`, http.StatusBadRequest, "", "", "", nil},
		{"rich text sanitized", `{"name":"ok","description":"<script>x</script><b>hi</b>"}`, http.StatusOK, "", "ok", "<b>hi</b>", nil},
		{"plain text kept as sent", `{"name":"a<b & c","description":"x"}`, http.StatusOK, "", "a<b & c", "x", nil},
		{"ampersand encoded consistently", `{"name":"ok","description":"Tom & Jerry"}`, http.StatusOK, "", "ok", "Tom &amp; Jerry", nil},
		{"nested tagged field", `{"name":"ok","notes":[{"text":"<i>n</i><script>y</script>"},{"text":"plain"}]}`, http.StatusOK, "", "ok", "", []string{"<i>n</i>", "plain"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/bind", func(c *fiber.Ctx) error {
				var in bindTarget
				if err := bindBody(c, &in); err != nil {
					return nil
				}
				return c.JSON(in)
			})

			req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, tt.status, resp.StatusCode)
			if tt.status != http.StatusOK {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, models.CodeValidation, body.Error.Code)
				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, body.Error.Message)
				}
				return
			}
			var got bindTarget
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantDesc, got.Description)
			var notes []string
			for _, n := range got.Notes {
				notes = append(notes, n.Text)
			}
			assert.Equal(t, tt.wantNotes, notes)
		})
	}
}

func TestRespondNull(t *testing.T) {
	app := fiber.New()
	app.Post("/noop", respondNull)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/noop", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "null", readBody(t, resp))
}
