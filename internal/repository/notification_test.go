package repository

import (
	"context"
	"testing"

	"mindbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotification(t *testing.T, repo NotificationRepository, userID, actorID uint, typ models.NotificationType) *models.Notification {
	t.Helper()
	n := &models.Notification{
		UserID:  userID,
		ActorID: &actorID,
		Type:    typ,
		Message: "test notification",
	}
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func TestNotificationRepository_UnreadLifecycle(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	notifications := NewNotificationRepository(db)
	ctx := context.Background()

	recipient := seedUser(t, users, "ada", "ada@example.com")
	actor := seedUser(t, users, "grace", "grace@example.com")

	first := seedNotification(t, notifications, recipient.ID, actor.ID, models.NotificationTypeComment)
	seedNotification(t, notifications, recipient.ID, actor.ID, models.NotificationTypeJoinRequest)

	unread, err := notifications.CountUnread(ctx, recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	require.NoError(t, notifications.MarkRead(ctx, first.ID, recipient.ID))
	unread, err = notifications.CountUnread(ctx, recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	require.NoError(t, notifications.MarkAllRead(ctx, recipient.ID))
	unread, err = notifications.CountUnread(ctx, recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)
}

func TestNotificationRepository_MarkReadIsRecipientScoped(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	notifications := NewNotificationRepository(db)
	ctx := context.Background()

	recipient := seedUser(t, users, "ada", "ada@example.com")
	actor := seedUser(t, users, "grace", "grace@example.com")
	n := seedNotification(t, notifications, recipient.ID, actor.ID, models.NotificationTypeComment)

	err := notifications.MarkRead(ctx, n.ID, actor.ID)
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ErrCodeNotFound, appErr.Code)
}

func TestNotificationRepository_ListNewestFirstWithActor(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	notifications := NewNotificationRepository(db)
	ctx := context.Background()

	recipient := seedUser(t, users, "ada", "ada@example.com")
	actor := seedUser(t, users, "grace", "grace@example.com")

	seedNotification(t, notifications, recipient.ID, actor.ID, models.NotificationTypeComment)
	seedNotification(t, notifications, recipient.ID, actor.ID, models.NotificationTypeRequestApproved)

	list, err := notifications.ListByUser(ctx, recipient.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Actor)
	assert.Equal(t, "grace", list[0].Actor.Username)
}
