package models

import "time"

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	// NotificationTypeComment fires when someone comments on your post.
	NotificationTypeComment NotificationType = "comment"
	// NotificationTypeRequestApproved fires when your join request is accepted.
	// Join requests themselves are delivered transiently and never persisted;
	// the pending-requests endpoint is the durable record.
	NotificationTypeRequestApproved NotificationType = "request_approved"
)

// Notification is a persisted event for a user's notification feed.
// Rows are written before any real-time delivery is attempted, so the
// feed is complete even when the recipient is offline.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	ActorID   *uint            `json:"actor_id"`
	Actor     *User            `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Type      NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	PostID    *uint            `gorm:"index" json:"post_id,omitempty"`
	CircleID  *uint            `gorm:"index" json:"circle_id,omitempty"`
	Read      bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
