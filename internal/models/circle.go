package models

import "time"

// Circle is a topic community users can join to share posts.
// MemberCount is denormalized and maintained alongside membership writes.
type Circle struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	Name            string             `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Description     string             `gorm:"type:text" json:"description"`
	Icon            string             `json:"icon"`
	Tags            []string           `gorm:"serializer:json" json:"tags"`
	Private         bool               `gorm:"not null;default:false" json:"private"`
	CreatedByUserID *uint              `json:"created_by_user_id"`
	CreatedByUser   *User              `gorm:"foreignKey:CreatedByUserID" json:"created_by_user,omitempty"`
	MemberCount     int                `gorm:"not null;default:0" json:"member_count"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Memberships     []CircleMembership `gorm:"foreignKey:CircleID" json:"-"`
}
