package repository

import (
	"context"
	"testing"

	"mindbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCircle(t *testing.T, repo CircleRepository, creatorID uint, name string) *models.Circle {
	t.Helper()
	circle := &models.Circle{Name: name, Description: "a test circle"}
	require.NoError(t, repo.Create(context.Background(), circle, creatorID))
	return circle
}

func TestCircleRepository_CreateEnrollsCreatorAsAdmin(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)
	ctx := context.Background()

	creator := seedUser(t, users, "ada", "ada@example.com")
	circle := seedCircle(t, circles, creator.ID, "Anxiety Support")

	assert.Equal(t, 1, circle.MemberCount)

	membership, err := circles.GetMembership(ctx, circle.ID, creator.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, models.CircleRoleAdmin, membership.Role)

	count, err := circles.CountAdmins(ctx, circle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCircleRepository_DuplicateNameConflicts(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)

	creator := seedUser(t, users, "ada", "ada@example.com")
	seedCircle(t, circles, creator.ID, "Mindfulness")

	err := circles.Create(context.Background(), &models.Circle{Name: "Mindfulness"}, creator.ID)
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ErrCodeConflict, appErr.Code)
}

func TestCircleRepository_MemberCountTracksMembership(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)
	ctx := context.Background()

	creator := seedUser(t, users, "ada", "ada@example.com")
	joiner := seedUser(t, users, "grace", "grace@example.com")
	circle := seedCircle(t, circles, creator.ID, "Sleep")

	require.NoError(t, circles.AddMember(ctx, circle.ID, joiner.ID, models.CircleRoleMember))

	got, err := circles.GetByID(ctx, circle.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MemberCount)

	// Joining twice must not double-count.
	require.NoError(t, circles.AddMember(ctx, circle.ID, joiner.ID, models.CircleRoleMember))
	got, err = circles.GetByID(ctx, circle.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MemberCount)

	require.NoError(t, circles.RemoveMember(ctx, circle.ID, joiner.ID))
	got, err = circles.GetByID(ctx, circle.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MemberCount)

	// Removing a non-member leaves the count alone.
	require.NoError(t, circles.RemoveMember(ctx, circle.ID, joiner.ID))
	got, err = circles.GetByID(ctx, circle.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MemberCount)
}

func TestCircleRepository_JoinRequestsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)
	ctx := context.Background()

	creator := seedUser(t, users, "ada", "ada@example.com")
	requester := seedUser(t, users, "grace", "grace@example.com")
	circle := seedCircle(t, circles, creator.ID, "Private Circle")

	require.NoError(t, circles.AddJoinRequest(ctx, circle.ID, requester.ID))
	require.NoError(t, circles.AddJoinRequest(ctx, circle.ID, requester.ID))

	requests, err := circles.ListJoinRequests(ctx, circle.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, requester.ID, requests[0].UserID)

	has, err := circles.HasJoinRequest(ctx, circle.ID, requester.ID)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, circles.RemoveJoinRequest(ctx, circle.ID, requester.ID))
	has, err = circles.HasJoinRequest(ctx, circle.ID, requester.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCircleRepository_RoleChanges(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)
	ctx := context.Background()

	creator := seedUser(t, users, "ada", "ada@example.com")
	member := seedUser(t, users, "grace", "grace@example.com")
	circle := seedCircle(t, circles, creator.ID, "Focus")

	require.NoError(t, circles.AddMember(ctx, circle.ID, member.ID, models.CircleRoleMember))
	require.NoError(t, circles.UpdateMemberRole(ctx, circle.ID, member.ID, models.CircleRoleAdmin))

	admins, err := circles.ListAdminIDs(ctx, circle.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{creator.ID, member.ID}, admins)

	// Promoting a non-member fails rather than inventing a membership.
	err = circles.UpdateMemberRole(ctx, circle.ID, 9999, models.CircleRoleAdmin)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ErrCodeNotFound, appErr.Code)
}

func TestCircleRepository_ListForUserAndFeedIDs(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)
	ctx := context.Background()

	creator := seedUser(t, users, "ada", "ada@example.com")
	member := seedUser(t, users, "grace", "grace@example.com")
	c1 := seedCircle(t, circles, creator.ID, "Alpha")
	c2 := seedCircle(t, circles, creator.ID, "Beta")
	seedCircle(t, circles, creator.ID, "Gamma")

	require.NoError(t, circles.AddMember(ctx, c1.ID, member.ID, models.CircleRoleMember))
	require.NoError(t, circles.AddMember(ctx, c2.ID, member.ID, models.CircleRoleMember))

	mine, err := circles.ListForUser(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Alpha", mine[0].Name)

	ids, err := circles.MemberCircleIDs(ctx, member.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{c1.ID, c2.ID}, ids)
}

func TestCircleRepository_Search(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)

	creator := seedUser(t, users, "ada", "ada@example.com")
	seedCircle(t, circles, creator.ID, "Morning Meditation")
	seedCircle(t, circles, creator.ID, "Evening Walks")

	results, err := circles.Search(context.Background(), "Meditation", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Morning Meditation", results[0].Name)
}
