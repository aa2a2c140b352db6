package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mindbridge/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// circleTestApp mounts the circle routes with a fixed authenticated user.
func circleTestApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(asUser(userID))
	app.Post("/circles", s.CreateCircle)
	app.Get("/circles", s.GetTopCircles)
	app.Get("/circles/mine", s.GetMyCircles)
	app.Get("/circles/admin/pending-requests", s.GetPendingJoinRequests)
	app.Post("/circles/:id/join", s.JoinCircle)
	app.Post("/circles/:id/leave", s.LeaveCircle)
	app.Post("/circles/:id/promote", s.PromoteMember)
	app.Post("/circles/:id/remove-member", s.RemoveCircleMember)
	app.Post("/circles/:id/request-action", s.ActOnJoinRequest)
	app.Get("/circles/:id", s.GetCircle)
	return app
}

func getJSON(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestCreateCircleMakesCreatorAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "ada")
	app := circleTestApp(s, admin.ID)

	resp := postJSON(t, app, "/circles", map[string]any{
		"name":        "Night Owls",
		"description": "late night support",
		"tags":        []string{"sleep", "support"},
		"private":     true,
	})
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var circle models.Circle
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&circle))
	assert.Equal(t, 1, circle.MemberCount)

	isAdmin, err := s.circleService.IsAdmin(t.Context(), circle.ID, admin.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// A second circle with the same name conflicts.
	resp = postJSON(t, app, "/circles", map[string]any{"name": "Night Owls"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPrivateCircleJoinFlow(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "ada")
	joiner := createTestUser(t, s, "grace")

	adminApp := circleTestApp(s, admin.ID)
	joinerApp := circleTestApp(s, joiner.ID)

	resp := postJSON(t, adminApp, "/circles", map[string]any{"name": "Quiet Corner", "private": true})
	var circle models.Circle
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&circle))
	_ = resp.Body.Close()

	// A private circle is invisible to non-members.
	resp = getJSON(t, joinerApp, "/circles/1")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	// Joining queues a request instead of adding a member.
	resp = postJSON(t, joinerApp, "/circles/1/join", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var joinResult struct {
		Joined    bool `json:"joined"`
		Requested bool `json:"requested"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&joinResult))
	_ = resp.Body.Close()
	assert.False(t, joinResult.Joined)
	assert.True(t, joinResult.Requested)

	// The admin sees the pending request.
	resp = getJSON(t, adminApp, "/circles/admin/pending-requests")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending []models.CircleJoinRequest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pending))
	_ = resp.Body.Close()
	require.Len(t, pending, 1)
	assert.Equal(t, joiner.ID, pending[0].UserID)

	// A non-admin cannot act on the request.
	resp = postJSON(t, joinerApp, "/circles/1/request-action", map[string]any{
		"user_id": joiner.ID, "action": "approve",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	// Approval makes the requester a member.
	resp = postJSON(t, adminApp, "/circles/1/request-action", map[string]any{
		"user_id": joiner.ID, "action": "approve",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = getJSON(t, joinerApp, "/circles/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// The request queue drains.
	resp = getJSON(t, adminApp, "/circles/admin/pending-requests")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pending))
	_ = resp.Body.Close()
	assert.Empty(t, pending)

	// The approved member got a persisted notification.
	notifications, err := s.notificationRepo.ListByUser(t.Context(), joiner.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTypeRequestApproved, notifications[0].Type)
}

func TestSoleAdminLeaveBlockedWithBadRequest(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "ada")
	member := createTestUser(t, s, "grace")

	adminApp := circleTestApp(s, admin.ID)
	memberApp := circleTestApp(s, member.ID)

	resp := postJSON(t, adminApp, "/circles", map[string]any{"name": "Open Circle"})
	_ = resp.Body.Close()
	resp = postJSON(t, memberApp, "/circles/1/join", nil)
	_ = resp.Body.Close()

	resp = postJSON(t, adminApp, "/circles/1/leave", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	// Promoting a replacement unblocks the exit.
	resp = postJSON(t, adminApp, "/circles/1/promote", map[string]any{"user_id": member.ID})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, adminApp, "/circles/1/leave", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRemoveMember(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "ada")
	member := createTestUser(t, s, "grace")

	adminApp := circleTestApp(s, admin.ID)
	memberApp := circleTestApp(s, member.ID)

	resp := postJSON(t, adminApp, "/circles", map[string]any{"name": "Moderated"})
	_ = resp.Body.Close()
	resp = postJSON(t, memberApp, "/circles/1/join", nil)
	_ = resp.Body.Close()

	// Members cannot remove anyone.
	resp = postJSON(t, memberApp, "/circles/1/remove-member", map[string]any{"user_id": admin.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	// Self-removal must use leave.
	resp = postJSON(t, adminApp, "/circles/1/remove-member", map[string]any{"user_id": admin.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, adminApp, "/circles/1/remove-member", map[string]any{"user_id": member.ID})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	isMember, err := s.circleService.IsMember(t.Context(), 1, member.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestGetTopCirclesOrdersByMemberCount(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "ada")
	second := createTestUser(t, s, "grace")
	app := circleTestApp(s, admin.ID)

	resp := postJSON(t, app, "/circles", map[string]any{"name": "Small"})
	_ = resp.Body.Close()
	resp = postJSON(t, app, "/circles", map[string]any{"name": "Big"})
	_ = resp.Body.Close()

	secondApp := circleTestApp(s, second.ID)
	resp = postJSON(t, secondApp, "/circles/2/join", nil)
	_ = resp.Body.Close()

	resp = getJSON(t, app, "/circles")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var circles []models.Circle
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&circles))
	_ = resp.Body.Close()

	require.Len(t, circles, 2)
	assert.Equal(t, "Big", circles[0].Name)
	assert.Equal(t, "Small", circles[1].Name)
}
