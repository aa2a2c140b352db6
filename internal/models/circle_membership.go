package models

import "time"

// CircleRole defines a member's role within a circle.
type CircleRole string

const (
	// CircleRoleAdmin can moderate the circle and manage join requests.
	CircleRoleAdmin CircleRole = "admin"
	// CircleRoleMember is the default role.
	CircleRoleMember CircleRole = "member"
)

// CircleMembership maps users to circles and tracks role. Admins are
// members with an elevated role, so the admin set is always a subset of
// the member set.
type CircleMembership struct {
	CircleID  uint       `gorm:"primaryKey;autoIncrement:false" json:"circle_id"`
	Circle    *Circle    `gorm:"foreignKey:CircleID" json:"circle,omitempty"`
	UserID    uint       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      CircleRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
