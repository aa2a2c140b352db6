package repository

import (
	"context"
	"errors"

	"mindbridge/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post and comment data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByCircle(ctx context.Context, circleID uint, limit, offset int) ([]*models.Post, error)
	ListByCircles(ctx context.Context, circleIDs []uint, limit, offset int) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	ListComments(ctx context.Context, postID uint) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.withCommentCount(r.db.WithContext(ctx)).
		Preload("User").
		Preload("Circle").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post not found", err)
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListByCircle(ctx context.Context, circleID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.withCommentCount(r.db.WithContext(ctx)).
		Preload("User").
		Where("circle_id = ?", circleID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// ListByCircles backs the home feed: newest posts across all circles the
// user belongs to.
func (r *postRepository) ListByCircles(ctx context.Context, circleIDs []uint, limit, offset int) ([]*models.Post, error) {
	if len(circleIDs) == 0 {
		return nil, nil
	}
	var posts []*models.Post
	err := r.withCommentCount(r.db.WithContext(ctx)).
		Preload("User").
		Preload("Circle").
		Where("circle_id IN ?", circleIDs).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.withCommentCount(r.db.WithContext(ctx)).
		Preload("Circle").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// withCommentCount adds the comments_count alias in the same query so list
// endpoints avoid an N+1 on comments.
func (r *postRepository) withCommentCount(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) as comments_count")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Model(post).
		Select("title", "content", "image_url").
		Updates(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
}

func (r *postRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *postRepository) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment not found", err)
		}
		return nil, err
	}
	return &comment, nil
}

func (r *postRepository) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *postRepository) DeleteComment(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}
