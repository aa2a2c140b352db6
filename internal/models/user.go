// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account on the platform. Accounts created through
// Google sign-in carry a GoogleID and may not have a password until the
// user completes profile setup.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"size:120;not null;uniqueIndex" json:"username"`
	Email        string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password     string         `json:"-"`
	DisplayName  *string        `gorm:"size:64;uniqueIndex" json:"display_name"`
	GoogleID     *string        `gorm:"size:64;uniqueIndex" json:"-"`
	Avatar       string         `json:"avatar"`
	Bio          string         `gorm:"type:text" json:"bio"`
	Interests    []string       `gorm:"serializer:json" json:"interests"`
	SetupDone    bool           `gorm:"not null;default:false" json:"setup_done"`
	IsAdmin      bool           `gorm:"not null;default:false" json:"is_admin"`
	LastActiveAt *time.Time     `json:"last_active_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasPassword reports whether the account has local credentials.
// Google-provisioned accounts may not until setup completes.
func (u *User) HasPassword() bool {
	return u.Password != ""
}
