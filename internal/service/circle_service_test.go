package service

import (
	"context"
	"testing"

	"mindbridge/internal/database"
	"mindbridge/internal/models"
	"mindbridge/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

type notifierSpy struct {
	joinRequested    int
	requestApproved  int
	lastAdminIDs     []uint
	lastRequesterID  uint
	lastApprovedUser uint
}

func (n *notifierSpy) JoinRequested(_ context.Context, _ *models.Circle, requesterID uint, adminIDs []uint) {
	n.joinRequested++
	n.lastRequesterID = requesterID
	n.lastAdminIDs = adminIDs
}

func (n *notifierSpy) RequestApproved(_ context.Context, _ *models.Circle, memberID, _ uint) {
	n.requestApproved++
	n.lastApprovedUser = memberID
}

type circleFixture struct {
	db       *gorm.DB
	users    repository.UserRepository
	circles  repository.CircleRepository
	service  *CircleService
	notifier *notifierSpy
}

func newCircleFixture(t *testing.T) *circleFixture {
	t.Helper()
	db := newTestDB(t)
	spy := &notifierSpy{}
	circles := repository.NewCircleRepository(db)
	return &circleFixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		circles:  circles,
		service:  NewCircleService(circles, spy),
		notifier: spy,
	}
}

func (f *circleFixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *circleFixture) circle(t *testing.T, creatorID uint, name string, private bool) *models.Circle {
	t.Helper()
	c := &models.Circle{Name: name, Private: private}
	require.NoError(t, f.circles.Create(context.Background(), c, creatorID))
	return c
}

func TestCircleService_JoinPublicIsImmediate(t *testing.T) {
	f := newCircleFixture(t)
	ctx := context.Background()

	admin := f.user(t, "ada")
	joiner := f.user(t, "grace")
	circle := f.circle(t, admin.ID, "Open Circle", false)

	result, err := f.service.Join(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, result.Joined)
	assert.False(t, result.Requested)

	isMember, err := f.service.IsMember(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, isMember)
	assert.Zero(t, f.notifier.joinRequested)

	// Joining again is a quiet no-op.
	result, err = f.service.Join(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, result.Joined)
}

func TestCircleService_JoinPrivateQueuesRequestAndNotifiesAdmins(t *testing.T) {
	f := newCircleFixture(t)
	ctx := context.Background()

	admin := f.user(t, "ada")
	joiner := f.user(t, "grace")
	circle := f.circle(t, admin.ID, "Private Circle", true)

	result, err := f.service.Join(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)
	assert.False(t, result.Joined)
	assert.True(t, result.Requested)

	isMember, err := f.service.IsMember(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	assert.Equal(t, 1, f.notifier.joinRequested)
	assert.Equal(t, joiner.ID, f.notifier.lastRequesterID)
	assert.Equal(t, []uint{admin.ID}, f.notifier.lastAdminIDs)

	// A repeat request does not ping the admins again.
	_, err = f.service.Join(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifier.joinRequested)
}

func TestCircleService_ApproveRequest(t *testing.T) {
	f := newCircleFixture(t)
	ctx := context.Background()

	admin := f.user(t, "ada")
	joiner := f.user(t, "grace")
	outsider := f.user(t, "mallory")
	circle := f.circle(t, admin.ID, "Private Circle", true)

	_, err := f.service.Join(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)

	// Non-admins cannot approve.
	err = f.service.ApproveRequest(ctx, circle.ID, joiner.ID, outsider.ID)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeForbidden, appErrCode(t, err))

	require.NoError(t, f.service.ApproveRequest(ctx, circle.ID, joiner.ID, admin.ID))

	isMember, err := f.service.IsMember(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, isMember)
	assert.Equal(t, 1, f.notifier.requestApproved)
	assert.Equal(t, joiner.ID, f.notifier.lastApprovedUser)

	// The request is consumed; approving again reports not found.
	err = f.service.ApproveRequest(ctx, circle.ID, joiner.ID, admin.ID)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNotFound, appErrCode(t, err))
}

func TestCircleService_RejectRequest(t *testing.T) {
	f := newCircleFixture(t)
	ctx := context.Background()

	admin := f.user(t, "ada")
	joiner := f.user(t, "grace")
	circle := f.circle(t, admin.ID, "Private Circle", true)

	_, err := f.service.Join(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.RejectRequest(ctx, circle.ID, joiner.ID, admin.ID))

	isMember, err := f.service.IsMember(ctx, circle.ID, joiner.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
	assert.Zero(t, f.notifier.requestApproved)
}

func TestCircleService_SoleAdminCannotLeave(t *testing.T) {
	f := newCircleFixture(t)
	ctx := context.Background()

	admin := f.user(t, "ada")
	member := f.user(t, "grace")
	circle := f.circle(t, admin.ID, "Busy Circle", false)

	_, err := f.service.Join(ctx, circle.ID, member.ID)
	require.NoError(t, err)

	err = f.service.Leave(ctx, circle.ID, admin.ID)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, appErrCode(t, err))

	// Nothing changed: the admin is still in, the circle still exists.
	isAdmin, err := f.service.IsAdmin(ctx, circle.ID, admin.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// After promoting a replacement the admin is free to go.
	require.NoError(t, f.service.Promote(ctx, circle.ID, member.ID, admin.ID))
	require.NoError(t, f.service.Leave(ctx, circle.ID, admin.ID))
}

func TestCircleService_DemoteKeepsAtLeastOneAdmin(t *testing.T) {
	f := newCircleFixture(t)
	ctx := context.Background()

	admin := f.user(t, "ada")
	member := f.user(t, "grace")
	circle := f.circle(t, admin.ID, "Guarded", false)

	_, err := f.service.Join(ctx, circle.ID, member.ID)
	require.NoError(t, err)

	err = f.service.Demote(ctx, circle.ID, admin.ID, admin.ID)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeForbidden, appErrCode(t, err))

	require.NoError(t, f.service.Promote(ctx, circle.ID, member.ID, admin.ID))
	require.NoError(t, f.service.Demote(ctx, circle.ID, admin.ID, member.ID))

	isAdmin, err := f.service.IsAdmin(ctx, circle.ID, admin.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestCircleService_PromoteRequiresMembership(t *testing.T) {
	f := newCircleFixture(t)
	ctx := context.Background()

	admin := f.user(t, "ada")
	outsider := f.user(t, "grace")
	circle := f.circle(t, admin.ID, "Members Only", false)

	err := f.service.Promote(ctx, circle.ID, outsider.ID, admin.ID)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, appErrCode(t, err))
}

func TestCircleService_RemoveMember(t *testing.T) {
	f := newCircleFixture(t)
	ctx := context.Background()

	admin := f.user(t, "ada")
	member := f.user(t, "grace")
	circle := f.circle(t, admin.ID, "Moderated", false)

	_, err := f.service.Join(ctx, circle.ID, member.ID)
	require.NoError(t, err)

	// A member cannot remove anyone.
	err = f.service.RemoveMember(ctx, circle.ID, admin.ID, member.ID)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeForbidden, appErrCode(t, err))

	// Admins cannot remove themselves.
	err = f.service.RemoveMember(ctx, circle.ID, admin.ID, admin.ID)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, appErrCode(t, err))

	require.NoError(t, f.service.RemoveMember(ctx, circle.ID, member.ID, admin.ID))
	isMember, err := f.service.IsMember(ctx, circle.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestCircleService_RemoveAdminAllowedWhenAnotherRemains(t *testing.T) {
	f := newCircleFixture(t)
	ctx := context.Background()

	founder := f.user(t, "ada")
	second := f.user(t, "grace")
	circle := f.circle(t, founder.ID, "Co-Run", false)

	_, err := f.service.Join(ctx, circle.ID, second.ID)
	require.NoError(t, err)
	require.NoError(t, f.service.Promote(ctx, circle.ID, second.ID, founder.ID))

	// Two admins: either may remove the other.
	require.NoError(t, f.service.RemoveMember(ctx, circle.ID, founder.ID, second.ID))

	isMember, err := f.service.IsMember(ctx, circle.ID, founder.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}
