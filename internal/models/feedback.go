package models

import "time"

// FeedbackMaxMessageLen caps feedback message length.
const FeedbackMaxMessageLen = 500

// Feedback is an anonymous suggestion on the feedback board. There is
// no author; upvotes are the only interaction.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"size:500;not null" json:"message"`
	Upvotes   int       `gorm:"not null;default:0" json:"upvotes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
