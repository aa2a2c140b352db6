package repository

import (
	"context"
	"testing"

	"mindbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoodRepository_UpsertSameDayOverwrites(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	moods := NewMoodRepository(db)
	ctx := context.Background()

	user := seedUser(t, users, "ada", "ada@example.com")

	first := &models.Mood{UserID: user.ID, Day: "2026-08-27", Value: models.MoodGood}
	require.NoError(t, moods.Upsert(ctx, first))

	second := &models.Mood{UserID: user.ID, Day: "2026-08-27", Value: models.MoodBad}
	require.NoError(t, moods.Upsert(ctx, second))

	got, err := moods.GetByUserDay(ctx, user.ID, "2026-08-27")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.MoodBad, got.Value)

	history, err := moods.ListByUserSince(ctx, user.ID, "2026-08-01")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestMoodRepository_ListByUserSinceOrdersByDay(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	moods := NewMoodRepository(db)
	ctx := context.Background()

	user := seedUser(t, users, "ada", "ada@example.com")
	other := seedUser(t, users, "grace", "grace@example.com")

	for _, day := range []string{"2026-08-25", "2026-08-23", "2026-08-27"} {
		require.NoError(t, moods.Upsert(ctx, &models.Mood{UserID: user.ID, Day: day, Value: models.MoodNeutral}))
	}
	require.NoError(t, moods.Upsert(ctx, &models.Mood{UserID: other.ID, Day: "2026-08-25", Value: models.MoodGood}))

	history, err := moods.ListByUserSince(ctx, user.ID, "2026-08-24")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2026-08-25", history[0].Day)
	assert.Equal(t, "2026-08-27", history[1].Day)
}

func TestMoodRepository_FillersNeverClobberRealEntries(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	moods := NewMoodRepository(db)
	ctx := context.Background()

	user := seedUser(t, users, "ada", "ada@example.com")
	require.NoError(t, moods.Upsert(ctx, &models.Mood{UserID: user.ID, Day: "2026-08-26", Value: models.MoodGood}))

	require.NoError(t, moods.CreateFillers(ctx, user.ID, []string{"2026-08-25", "2026-08-26", "2026-08-27"}))

	history, err := moods.ListByUserSince(ctx, user.ID, "2026-08-25")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.MoodNotAdded, history[0].Value)
	assert.Equal(t, models.MoodGood, history[1].Value)
	assert.Equal(t, models.MoodNotAdded, history[2].Value)
}

func TestMoodRepository_GetLatestBefore(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	moods := NewMoodRepository(db)
	ctx := context.Background()

	user := seedUser(t, users, "ada", "ada@example.com")
	for _, day := range []string{"2026-08-20", "2026-08-24", "2026-08-28"} {
		require.NoError(t, moods.Upsert(ctx, &models.Mood{UserID: user.ID, Day: day, Value: models.MoodGood}))
	}

	latest, err := moods.GetLatestBefore(ctx, user.ID, "2026-08-28")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2026-08-24", latest.Day)

	none, err := moods.GetLatestBefore(ctx, user.ID, "2026-08-20")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMoodRepository_GetByUserDayMissIsNilNil(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	moods := NewMoodRepository(db)

	user := seedUser(t, users, "ada", "ada@example.com")

	got, err := moods.GetByUserDay(context.Background(), user.ID, "2026-01-01")
	require.NoError(t, err)
	assert.Nil(t, got)
}
