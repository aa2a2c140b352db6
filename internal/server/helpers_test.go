package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/items", func(c *fiber.Ctx) error {
		got = parsePagination(c, 20)
		return c.SendStatus(http.StatusOK)
	})

	cases := []struct {
		name  string
		query string
		want  Pagination
	}{
		{"defaults", "", Pagination{Limit: 20, Offset: 0}},
		{"explicit", "?limit=5&offset=10", Pagination{Limit: 5, Offset: 10}},
		{"capped", "?limit=5000", Pagination{Limit: 100, Offset: 0}},
		{"negative limit falls back", "?limit=-1", Pagination{Limit: 20, Offset: 0}},
		{"negative offset clamps", "?offset=-3", Pagination{Limit: 20, Offset: 0}},
		{"garbage falls back", "?limit=abc&offset=xyz", Pagination{Limit: 20, Offset: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := getJSON(t, app, "/items"+tc.query)
			_ = resp.Body.Close()
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHumanizeParam(t *testing.T) {
	cases := map[string]string{
		"id":        "ID",
		"circleId":  "circle ID",
		"journalId": "journal ID",
		"userId":    "user ID",
		"slug":      "slug",
	}
	for param, want := range cases {
		assert.Equal(t, want, humanizeParam(param), param)
	}
}

func TestParseIDWritesBadRequest(t *testing.T) {
	s := newTestServer(t)
	app := fiber.New()
	app.Get("/things/:circleId", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "circleId")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	resp := getJSON(t, app, "/things/abc")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	assert.Equal(t, "Invalid circle ID", body.Error)

	resp = getJSON(t, app, "/things/42")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}
