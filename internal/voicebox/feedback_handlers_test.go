package voicebox

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mindbridge/internal/config"
	"mindbridge/internal/database"
	"mindbridge/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	s := NewServerWithDeps(&config.Config{FeedbackPort: "4001"}, db, nil)
	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func postFeedback(t *testing.T, app *fiber.App, title, message string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"title": title, "message": message})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/feedback/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func upvote(t *testing.T, app *fiber.App, path, action string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"action": action})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func listFeedback(t *testing.T, app *fiber.App, query string) []models.Feedback {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/feedback/"+query, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []models.Feedback
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	return items
}

func TestCreateAndListFeedback(t *testing.T) {
	_, app := newTestApp(t)

	resp := postFeedback(t, app, "Dark mode", "Please add a dark theme")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Feedback
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	_ = resp.Body.Close()
	assert.Zero(t, created.Upvotes)

	items := listFeedback(t, app, "")
	require.Len(t, items, 1)
	assert.Equal(t, "Dark mode", items[0].Title)
}

func TestCreateFeedbackValidation(t *testing.T) {
	_, app := newTestApp(t)

	resp := postFeedback(t, app, "t", "   ")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postFeedback(t, app, "t", strings.Repeat("x", models.FeedbackMaxMessageLen+1))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestUpvoteNeverGoesNegative(t *testing.T) {
	_, app := newTestApp(t)

	resp := postFeedback(t, app, "t", "message")
	var created models.Feedback
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	_ = resp.Body.Close()

	path := "/api/feedback/1/upvote"

	resp = upvote(t, app, path, "increment")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Feedback
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	_ = resp.Body.Close()
	assert.Equal(t, 1, updated.Upvotes)

	resp = upvote(t, app, path, "decrement")
	_ = resp.Body.Close()
	resp = upvote(t, app, path, "decrement")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	_ = resp.Body.Close()
	assert.Zero(t, updated.Upvotes)

	resp = upvote(t, app, path, "sideways")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = upvote(t, app, "/api/feedback/999/upvote", "increment")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestListFeedbackSearchAndSort(t *testing.T) {
	_, app := newTestApp(t)

	for _, f := range []struct{ title, message string }{
		{"Dark mode", "Please add a dark theme"},
		{"Export", "Let me export my journals"},
		{"Mobile app", "A native app would be great"},
	} {
		resp := postFeedback(t, app, f.title, f.message)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}

	// Push "Export" to the top of trending.
	resp := upvote(t, app, "/api/feedback/2/upvote", "increment")
	_ = resp.Body.Close()

	items := listFeedback(t, app, "?sort=trending")
	require.Len(t, items, 3)
	assert.Equal(t, "Export", items[0].Title)

	// Recent sort puts the newest first regardless of votes.
	items = listFeedback(t, app, "?sort=recent")
	require.Len(t, items, 3)
	assert.Equal(t, "Mobile app", items[0].Title)

	// Search matches title or message, case-sensitively on the LIKE pattern.
	items = listFeedback(t, app, "?search=journals")
	require.Len(t, items, 1)
	assert.Equal(t, "Export", items[0].Title)
}
