package repository

import (
	"context"
	"errors"

	"mindbridge/internal/models"

	"gorm.io/gorm"
)

// FeedbackRepository defines the interface for anonymous feedback data
// operations. Feedback has no author column on purpose.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	GetByID(ctx context.Context, id uint) (*models.Feedback, error)
	List(ctx context.Context, search, sort string, limit, offset int) ([]*models.Feedback, error)
	AddUpvote(ctx context.Context, id uint, delta int) (*models.Feedback, error)
}

// feedbackRepository implements FeedbackRepository
type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *feedbackRepository) GetByID(ctx context.Context, id uint) (*models.Feedback, error) {
	var feedback models.Feedback
	err := r.db.WithContext(ctx).First(&feedback, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Feedback not found", err)
		}
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) List(ctx context.Context, search, sort string, limit, offset int) ([]*models.Feedback, error) {
	db := r.db.WithContext(ctx)
	if search != "" {
		like := "%" + search + "%"
		db = db.Where("title LIKE ? OR message LIKE ?", like, like)
	}
	// id breaks ties between rows created in the same instant.
	switch sort {
	case "trending":
		db = db.Order("upvotes DESC, created_at DESC, id DESC")
	default: // "recent" and anything unrecognized
		db = db.Order("created_at DESC, id DESC")
	}

	var items []*models.Feedback
	err := db.Limit(limit).Offset(offset).Find(&items).Error
	return items, err
}

// AddUpvote applies delta atomically and returns the updated row. The count
// never drops below zero even if un-votes outnumber votes.
func (r *feedbackRepository) AddUpvote(ctx context.Context, id uint, delta int) (*models.Feedback, error) {
	// Postgres spells the clamp GREATEST; sqlite (used in tests) spells it MAX.
	clamp := "GREATEST(upvotes + ?, 0)"
	if r.db.Dialector.Name() == "sqlite" {
		clamp = "MAX(upvotes + ?, 0)"
	}

	var feedback models.Feedback
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Feedback{}).
			Where("id = ?", id).
			Update("upvotes", gorm.Expr(clamp, delta))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Feedback not found", gorm.ErrRecordNotFound)
		}
		return tx.First(&feedback, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}
