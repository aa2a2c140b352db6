package repository

import (
	"context"
	"errors"

	"mindbridge/internal/cache"
	"mindbridge/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MoodRepository defines the interface for mood data operations.
// One row per user per day; recording twice on the same day updates the
// existing row in place.
type MoodRepository interface {
	Upsert(ctx context.Context, mood *models.Mood) error
	CreateFillers(ctx context.Context, userID uint, days []string) error
	GetByUserDay(ctx context.Context, userID uint, day string) (*models.Mood, error)
	GetLatestBefore(ctx context.Context, userID uint, day string) (*models.Mood, error)
	ListByUserSince(ctx context.Context, userID uint, sinceDay string) ([]*models.Mood, error)
}

// moodRepository implements MoodRepository
type moodRepository struct {
	db *gorm.DB
}

// NewMoodRepository creates a new mood repository
func NewMoodRepository(db *gorm.DB) MoodRepository {
	return &moodRepository{db: db}
}

func (r *moodRepository) Upsert(ctx context.Context, mood *models.Mood) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(mood).Error
	if err == nil {
		cache.InvalidateMoodHistory(ctx, mood.UserID)
	}
	return err
}

// CreateFillers inserts not_added rows for skipped days. Conflicts are
// ignored so a filler never clobbers a real entry.
func (r *moodRepository) CreateFillers(ctx context.Context, userID uint, days []string) error {
	if len(days) == 0 {
		return nil
	}
	fillers := make([]models.Mood, 0, len(days))
	for _, day := range days {
		fillers = append(fillers, models.Mood{
			UserID: userID,
			Day:    day,
			Value:  models.MoodNotAdded,
		})
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fillers).Error
	if err == nil {
		cache.InvalidateMoodHistory(ctx, userID)
	}
	return err
}

func (r *moodRepository) GetByUserDay(ctx context.Context, userID uint, day string) (*models.Mood, error) {
	var mood models.Mood
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		First(&mood).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mood, nil
}

// GetLatestBefore returns the newest entry strictly before day, or nil.
func (r *moodRepository) GetLatestBefore(ctx context.Context, userID uint, day string) (*models.Mood, error) {
	var mood models.Mood
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day < ?", userID, day).
		Order("day DESC").
		First(&mood).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mood, nil
}

// ListByUserSince returns recorded moods from sinceDay onward, oldest
// first. Day strings sort lexicographically in calendar order.
func (r *moodRepository) ListByUserSince(ctx context.Context, userID uint, sinceDay string) ([]*models.Mood, error) {
	var moods []*models.Mood
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day >= ?", userID, sinceDay).
		Order("day ASC").
		Find(&moods).Error
	return moods, err
}
