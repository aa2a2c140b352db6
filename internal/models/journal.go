package models

import (
	"time"

	"gorm.io/gorm"
)

// JournalVisibility controls who may read a journal entry. Only private
// entries are served today; the field is stored so entries keep their
// setting when sharing ships.
type JournalVisibility string

const (
	JournalVisibilityPrivate JournalVisibility = "private"
	JournalVisibilityCircles JournalVisibility = "circles"
	JournalVisibilityPublic  JournalVisibility = "public"
)

// ValidJournalVisibility reports whether v is a known visibility setting.
func ValidJournalVisibility(v JournalVisibility) bool {
	switch v {
	case JournalVisibilityPrivate, JournalVisibilityCircles, JournalVisibilityPublic:
		return true
	}
	return false
}

// Journal is a journal entry owned by one user.
type Journal struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Title      string            `gorm:"size:200;not null" json:"title"`
	Content    string            `gorm:"type:text;not null" json:"content"`
	Tags       []string          `gorm:"serializer:json" json:"tags"`
	Visibility JournalVisibility `gorm:"type:varchar(20);not null;default:'private'" json:"visibility"`
	UserID     uint              `gorm:"not null;index" json:"user_id"`
	User       *User             `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DeletedAt  gorm.DeletedAt    `gorm:"index" json:"-"`
}
