package seed

import (
	"testing"

	"mindbridge/internal/database"
	"mindbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func TestSeedPopulatesEveryCollection(t *testing.T) {
	db := newSeedTestDB(t)

	err := Seed(db, Options{
		NumUsers:    4,
		NumCircles:  2,
		NumPosts:    6,
		NumFeedback: 3,
	})
	require.NoError(t, err)

	var users, circles, memberships, posts, moods, journals, feedback int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Circle{}).Count(&circles).Error)
	require.NoError(t, db.Model(&models.CircleMembership{}).Count(&memberships).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Mood{}).Count(&moods).Error)
	require.NoError(t, db.Model(&models.Journal{}).Count(&journals).Error)
	require.NoError(t, db.Model(&models.Feedback{}).Count(&feedback).Error)

	assert.EqualValues(t, 4, users)
	assert.EqualValues(t, 2, circles)
	assert.GreaterOrEqual(t, memberships, circles) // every circle has its admin
	assert.EqualValues(t, 6, posts)
	assert.EqualValues(t, 4*30, moods)
	assert.GreaterOrEqual(t, journals, users)
	assert.EqualValues(t, 3, feedback)
}

func TestSeededCircleCountsMatchMemberships(t *testing.T) {
	db := newSeedTestDB(t)
	require.NoError(t, Seed(db, Options{NumUsers: 5, NumCircles: 3}))

	var circles []models.Circle
	require.NoError(t, db.Find(&circles).Error)
	for _, circle := range circles {
		var members int64
		require.NoError(t, db.Model(&models.CircleMembership{}).
			Where("circle_id = ?", circle.ID).Count(&members).Error)
		assert.EqualValues(t, members, circle.MemberCount, circle.Name)

		var admins int64
		require.NoError(t, db.Model(&models.CircleMembership{}).
			Where("circle_id = ? AND role = ?", circle.ID, models.CircleRoleAdmin).
			Count(&admins).Error)
		assert.EqualValues(t, 1, admins, circle.Name)
	}
}

func TestFactoryUserHasUsablePassword(t *testing.T) {
	db := newSeedTestDB(t)
	f := NewFactory(db)

	user, err := f.CreateUser()
	require.NoError(t, err)
	assert.True(t, user.HasPassword())
	assert.NotEmpty(t, user.Interests)
	require.NotNil(t, user.DisplayName)
}
