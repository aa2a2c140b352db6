// Package seed provides helpers to create demo data for development and
// testing. Not intended for production use.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"mindbridge/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser persists a user with a fake profile. All seeded users share
// the password "password123".
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	username := fmt.Sprintf("%s%d", gofakeit.Username(), f.rand.Intn(10000))
	displayName := gofakeit.Name()
	user := &models.User{
		Username:    username,
		Email:       fmt.Sprintf("%s@example.com", username),
		Password:    string(hash),
		DisplayName: &displayName,
		Avatar:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		Bio:         gofakeit.Sentence(8),
		Interests:   f.interests(),
		SetupDone:   true,
	}
	for _, o := range overrides {
		o(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (f *Factory) interests() []string {
	pool := []string{"mindfulness", "sleep", "fitness", "reading", "music",
		"cooking", "nature", "journaling", "meditation", "art"}
	n := 1 + f.rand.Intn(3)
	out := make([]string, 0, n)
	for _, i := range f.rand.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}

// CreateCircle persists a circle with the creator as its first admin.
func (f *Factory) CreateCircle(creator *models.User, overrides ...func(*models.Circle)) (*models.Circle, error) {
	circle := &models.Circle{
		Name:            fmt.Sprintf("%s %s %d", gofakeit.AdjectiveDescriptive(), gofakeit.NounAbstract(), f.rand.Intn(1000)),
		Description:     gofakeit.Sentence(10),
		Tags:            f.interests(),
		Private:         f.rand.Intn(4) == 0,
		CreatedByUserID: &creator.ID,
		MemberCount:     1,
	}
	for _, o := range overrides {
		o(circle)
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(circle).Error; err != nil {
			return err
		}
		return tx.Create(&models.CircleMembership{
			CircleID: circle.ID,
			UserID:   creator.ID,
			Role:     models.CircleRoleAdmin,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return circle, nil
}

// AddMember joins a user to a circle and bumps the member count.
func (f *Factory) AddMember(circle *models.Circle, user *models.User) error {
	return f.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.CircleMembership{
			CircleID: circle.ID,
			UserID:   user.ID,
			Role:     models.CircleRoleMember,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Circle{}).Where("id = ?", circle.ID).
			Update("member_count", gorm.Expr("member_count + 1")).Error
	})
}

// CreatePost persists a post into a circle with a realistic created_at
// spread over the trailing 90 days.
func (f *Factory) CreatePost(author *models.User, circle *models.Circle, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Title:     gofakeit.Sentence(5),
		Content:   gofakeit.Paragraph(1, 3, 8, "\n"),
		UserID:    author.ID,
		CircleID:  circle.ID,
		CreatedAt: f.pastTime(90),
	}
	if f.rand.Intn(3) == 0 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	}
	for _, o := range overrides {
		o(post)
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment on a post.
func (f *Factory) CreateComment(author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content:   gofakeit.Sentence(12),
		UserID:    author.ID,
		PostID:    post.ID,
		CreatedAt: post.CreatedAt.Add(time.Duration(1+f.rand.Intn(120)) * time.Minute),
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateJournal persists a private journal entry for the user.
func (f *Factory) CreateJournal(owner *models.User) (*models.Journal, error) {
	journal := &models.Journal{
		Title:      gofakeit.Sentence(4),
		Content:    gofakeit.Paragraph(2, 4, 10, "\n"),
		Tags:       f.interests(),
		Visibility: models.JournalVisibilityPrivate,
		UserID:     owner.ID,
		CreatedAt:  f.pastTime(60),
	}
	if err := f.db.Create(journal).Error; err != nil {
		return nil, err
	}
	return journal, nil
}

// CreateMoodHistory writes a mood log covering the trailing window, with
// random skipped days left as not_added so the UI's gap rendering has
// something to show.
func (f *Factory) CreateMoodHistory(owner *models.User, days int) error {
	values := []models.MoodValue{models.MoodGood, models.MoodNeutral, models.MoodBad}
	today := time.Now()
	moods := make([]models.Mood, 0, days)
	for d := days - 1; d >= 0; d-- {
		value := values[f.rand.Intn(len(values))]
		if f.rand.Intn(4) == 0 {
			value = models.MoodNotAdded
		}
		moods = append(moods, models.Mood{
			UserID:     owner.ID,
			Day:        today.AddDate(0, 0, -d).Format(models.MoodDayFormat),
			Value:      value,
			Visibility: "private",
		})
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&moods).Error
}

// CreateFeedback persists an anonymous feedback post.
func (f *Factory) CreateFeedback() (*models.Feedback, error) {
	message := gofakeit.Sentence(10)
	if len(message) > models.FeedbackMaxMessageLen {
		message = message[:models.FeedbackMaxMessageLen]
	}
	feedback := &models.Feedback{
		Title:     gofakeit.Sentence(3),
		Message:   message,
		Upvotes:   f.rand.Intn(40),
		CreatedAt: f.pastTime(30),
	}
	if err := f.db.Create(feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (f *Factory) pastTime(maxDays int) time.Time {
	return time.Now().
		Add(-time.Duration(f.rand.Intn(maxDays*24)) * time.Hour).
		Add(-time.Duration(f.rand.Intn(60)) * time.Minute)
}
