package repository

import (
	"context"
	"testing"

	"mindbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_CreateAndGetWithCommentCount(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	author := seedUser(t, users, "ada", "ada@example.com")
	circle := seedCircle(t, circles, author.ID, "Gratitude")

	post := &models.Post{Content: "three good things today", UserID: author.ID, CircleID: circle.ID}
	require.NoError(t, posts.Create(ctx, post))

	require.NoError(t, posts.CreateComment(ctx, &models.Comment{
		Content: "love this", UserID: author.ID, PostID: post.ID,
	}))
	require.NoError(t, posts.CreateComment(ctx, &models.Comment{
		Content: "same here", UserID: author.ID, PostID: post.ID,
	}))

	got, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentsCount)
	assert.Equal(t, "ada", got.User.Username)
}

func TestPostRepository_FeedSpansCircles(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	author := seedUser(t, users, "ada", "ada@example.com")
	c1 := seedCircle(t, circles, author.ID, "Alpha")
	c2 := seedCircle(t, circles, author.ID, "Beta")
	c3 := seedCircle(t, circles, author.ID, "Gamma")

	for _, circleID := range []uint{c1.ID, c2.ID, c3.ID} {
		require.NoError(t, posts.Create(ctx, &models.Post{
			Content: "hello", UserID: author.ID, CircleID: circleID,
		}))
	}

	feed, err := posts.ListByCircles(ctx, []uint{c1.ID, c2.ID}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 2)

	empty, err := posts.ListByCircles(ctx, nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostRepository_DeletedCommentsNotCounted(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	author := seedUser(t, users, "ada", "ada@example.com")
	circle := seedCircle(t, circles, author.ID, "Gratitude")

	post := &models.Post{Content: "checking in", UserID: author.ID, CircleID: circle.ID}
	require.NoError(t, posts.Create(ctx, post))

	comment := &models.Comment{Content: "hi", UserID: author.ID, PostID: post.ID}
	require.NoError(t, posts.CreateComment(ctx, comment))
	require.NoError(t, posts.DeleteComment(ctx, comment.ID))

	got, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CommentsCount)

	comments, err := posts.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestPostRepository_DeleteHidesPost(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	circles := NewCircleRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	author := seedUser(t, users, "ada", "ada@example.com")
	circle := seedCircle(t, circles, author.ID, "Gratitude")

	post := &models.Post{Content: "short lived", UserID: author.ID, CircleID: circle.ID}
	require.NoError(t, posts.Create(ctx, post))
	require.NoError(t, posts.Delete(ctx, post.ID))

	_, err := posts.GetByID(ctx, post.ID)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ErrCodeNotFound, appErr.Code)
}
