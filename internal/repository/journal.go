package repository

import (
	"context"
	"errors"

	"mindbridge/internal/models"

	"gorm.io/gorm"
)

// JournalRepository defines the interface for journal data operations.
// Journals are strictly private, so every query is scoped to the owner.
type JournalRepository interface {
	Create(ctx context.Context, journal *models.Journal) error
	GetByID(ctx context.Context, id, userID uint) (*models.Journal, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Journal, error)
	Update(ctx context.Context, journal *models.Journal) error
	Delete(ctx context.Context, id, userID uint) error
}

// journalRepository implements JournalRepository
type journalRepository struct {
	db *gorm.DB
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) Create(ctx context.Context, journal *models.Journal) error {
	return r.db.WithContext(ctx).Create(journal).Error
}

func (r *journalRepository) GetByID(ctx context.Context, id, userID uint) (*models.Journal, error) {
	var journal models.Journal
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&journal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Journal not found", err)
		}
		return nil, err
	}
	return &journal, nil
}

func (r *journalRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Journal, error) {
	var journals []*models.Journal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&journals).Error
	return journals, err
}

func (r *journalRepository) Update(ctx context.Context, journal *models.Journal) error {
	return r.db.WithContext(ctx).Save(journal).Error
}

func (r *journalRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Journal{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Journal not found", gorm.ErrRecordNotFound)
	}
	return nil
}
