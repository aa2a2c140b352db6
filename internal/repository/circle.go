package repository

import (
	"context"
	"errors"

	"mindbridge/internal/cache"
	"mindbridge/internal/models"
	"mindbridge/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CircleRepository defines the interface for circle, membership and join
// request data operations. Membership mutations keep the denormalized
// member_count in step inside the same transaction.
type CircleRepository interface {
	Create(ctx context.Context, circle *models.Circle, creatorID uint) error
	GetByID(ctx context.Context, id uint) (*models.Circle, error)
	GetByName(ctx context.Context, name string) (*models.Circle, error)
	List(ctx context.Context, limit, offset int) ([]*models.Circle, error)
	ListTop(ctx context.Context, limit int) ([]*models.Circle, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Circle, error)
	ListForUser(ctx context.Context, userID uint) ([]*models.Circle, error)
	Update(ctx context.Context, circle *models.Circle) error
	Delete(ctx context.Context, id uint) error

	AddMember(ctx context.Context, circleID, userID uint, role models.CircleRole) error
	RemoveMember(ctx context.Context, circleID, userID uint) error
	GetMembership(ctx context.Context, circleID, userID uint) (*models.CircleMembership, error)
	UpdateMemberRole(ctx context.Context, circleID, userID uint, role models.CircleRole) error
	ListMembers(ctx context.Context, circleID uint) ([]*models.CircleMembership, error)
	ListAdminIDs(ctx context.Context, circleID uint) ([]uint, error)
	CountAdmins(ctx context.Context, circleID uint) (int64, error)
	MemberCircleIDs(ctx context.Context, userID uint) ([]uint, error)

	AddJoinRequest(ctx context.Context, circleID, userID uint) error
	RemoveJoinRequest(ctx context.Context, circleID, userID uint) error
	HasJoinRequest(ctx context.Context, circleID, userID uint) (bool, error)
	ListJoinRequests(ctx context.Context, circleID uint) ([]*models.CircleJoinRequest, error)
	ListJoinRequestsForAdmin(ctx context.Context, adminID uint) ([]*models.CircleJoinRequest, error)
}

// circleRepository implements CircleRepository
type circleRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewCircleRepository creates a new circle repository
func NewCircleRepository(db *gorm.DB) CircleRepository {
	return &circleRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

// Create inserts the circle and enrolls the creator as its first admin,
// so a circle can never exist without at least one admin.
func (r *circleRepository) Create(ctx context.Context, circle *models.Circle, creatorID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		circle.CreatedByUserID = &creatorID
		circle.MemberCount = 1
		if err := tx.Create(circle).Error; err != nil {
			return err
		}
		membership := models.CircleMembership{
			CircleID: circle.ID,
			UserID:   creatorID,
			Role:     models.CircleRoleAdmin,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Circle name already taken", err)
		}
		return err
	}
	cache.Invalidate(ctx, cache.TopCirclesKey)
	return nil
}

func (r *circleRepository) GetByID(ctx context.Context, id uint) (*models.Circle, error) {
	var circle models.Circle
	err := cache.CacheAside(ctx, cache.CircleKey(id), &circle, cache.CircleTTL, func() error {
		return r.db.WithContext(ctx).Preload("CreatedByUser").First(&circle, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Circle not found", err)
		}
		return nil, err
	}
	return &circle, nil
}

func (r *circleRepository) GetByName(ctx context.Context, name string) (*models.Circle, error) {
	var circle models.Circle
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&circle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &circle, nil
}

func (r *circleRepository) List(ctx context.Context, limit, offset int) ([]*models.Circle, error) {
	var circles []*models.Circle
	err := r.db.WithContext(ctx).
		Order("member_count DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&circles).Error
	return circles, err
}

// ListTop returns the most populated circles, cached briefly since it
// backs the discovery page on every load.
func (r *circleRepository) ListTop(ctx context.Context, limit int) ([]*models.Circle, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "ListTop", "circles")
	defer span.End()
	defer r.metrics.TrackQuery("select_top", "circles")()

	var circles []*models.Circle
	err := cache.CacheAside(ctx, cache.TopCirclesKey, &circles, cache.TopCirclesTTL, func() error {
		return r.db.WithContext(ctx).
			Order("member_count DESC, created_at ASC").
			Limit(limit).
			Find(&circles).Error
	})
	return circles, err
}

func (r *circleRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.Circle, error) {
	var circles []*models.Circle
	like := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("name LIKE ? OR description LIKE ?", like, like).
		Order("member_count DESC").
		Limit(limit).
		Offset(offset).
		Find(&circles).Error
	return circles, err
}

func (r *circleRepository) ListForUser(ctx context.Context, userID uint) ([]*models.Circle, error) {
	var circles []*models.Circle
	err := r.db.WithContext(ctx).
		Joins("JOIN circle_memberships ON circle_memberships.circle_id = circles.id").
		Where("circle_memberships.user_id = ?", userID).
		Order("circles.name ASC").
		Find(&circles).Error
	return circles, err
}

func (r *circleRepository) Update(ctx context.Context, circle *models.Circle) error {
	if err := r.db.WithContext(ctx).Save(circle).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Circle name already taken", err)
		}
		return err
	}
	cache.InvalidateCircle(ctx, circle.ID)
	return nil
}

func (r *circleRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("circle_id = ?", id).Delete(&models.CircleMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("circle_id = ?", id).Delete(&models.CircleJoinRequest{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Circle{}, id).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidateCircle(ctx, id)
	return nil
}

// AddMember inserts the membership and bumps member_count atomically.
// Inserting an existing membership is a no-op and leaves the count alone.
func (r *circleRepository) AddMember(ctx context.Context, circleID, userID uint, role models.CircleRole) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership := models.CircleMembership{CircleID: circleID, UserID: userID, Role: role}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&membership)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Circle{}).
			Where("id = ?", circleID).
			Update("member_count", gorm.Expr("member_count + 1")).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidateCircle(ctx, circleID)
	return nil
}

// RemoveMember deletes the membership and decrements member_count in the
// same transaction. Removing a non-member is a no-op.
func (r *circleRepository) RemoveMember(ctx context.Context, circleID, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("circle_id = ? AND user_id = ?", circleID, userID).
			Delete(&models.CircleMembership{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Circle{}).
			Where("id = ? AND member_count > 0", circleID).
			Update("member_count", gorm.Expr("member_count - 1")).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidateCircle(ctx, circleID)
	return nil
}

func (r *circleRepository) GetMembership(ctx context.Context, circleID, userID uint) (*models.CircleMembership, error) {
	var membership models.CircleMembership
	err := r.db.WithContext(ctx).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

func (r *circleRepository) UpdateMemberRole(ctx context.Context, circleID, userID uint, role models.CircleRole) error {
	result := r.db.WithContext(ctx).
		Model(&models.CircleMembership{}).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Membership not found", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *circleRepository) ListMembers(ctx context.Context, circleID uint) ([]*models.CircleMembership, error) {
	var memberships []*models.CircleMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("circle_id = ?", circleID).
		Order("role ASC, created_at ASC").
		Find(&memberships).Error
	return memberships, err
}

func (r *circleRepository) ListAdminIDs(ctx context.Context, circleID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.CircleMembership{}).
		Where("circle_id = ? AND role = ?", circleID, models.CircleRoleAdmin).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *circleRepository) CountAdmins(ctx context.Context, circleID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CircleMembership{}).
		Where("circle_id = ? AND role = ?", circleID, models.CircleRoleAdmin).
		Count(&count).Error
	return count, err
}

func (r *circleRepository) MemberCircleIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.CircleMembership{}).
		Where("user_id = ?", userID).
		Pluck("circle_id", &ids).Error
	return ids, err
}

// AddJoinRequest records a pending request. Requests are a set keyed on
// (circle_id, user_id), so repeat requests are absorbed silently.
func (r *circleRepository) AddJoinRequest(ctx context.Context, circleID, userID uint) error {
	request := models.CircleJoinRequest{CircleID: circleID, UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&request).Error
}

func (r *circleRepository) RemoveJoinRequest(ctx context.Context, circleID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		Delete(&models.CircleJoinRequest{}).Error
}

func (r *circleRepository) HasJoinRequest(ctx context.Context, circleID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CircleJoinRequest{}).
		Where("circle_id = ? AND user_id = ?", circleID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *circleRepository) ListJoinRequests(ctx context.Context, circleID uint) ([]*models.CircleJoinRequest, error) {
	var requests []*models.CircleJoinRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("circle_id = ?", circleID).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

// ListJoinRequestsForAdmin returns pending requests across every circle the
// user administers. This is the durable fallback for the transient
// join-request notification.
func (r *circleRepository) ListJoinRequestsForAdmin(ctx context.Context, adminID uint) ([]*models.CircleJoinRequest, error) {
	var requests []*models.CircleJoinRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Circle").
		Where("circle_id IN (?)", r.db.
			Model(&models.CircleMembership{}).
			Select("circle_id").
			Where("user_id = ? AND role = ?", adminID, models.CircleRoleAdmin)).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}
