package models

import "time"

// CircleJoinRequest is a pending request to join a private circle.
// The composite key gives the request set idempotent inserts; approving
// or rejecting a request deletes the row.
type CircleJoinRequest struct {
	CircleID  uint      `gorm:"primaryKey;autoIncrement:false" json:"circle_id"`
	Circle    *Circle   `gorm:"foreignKey:CircleID" json:"circle,omitempty"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
