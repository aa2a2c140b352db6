package models

import "time"

// MoodValue is a recorded daily mood.
type MoodValue string

const (
	// MoodGood marks a good day.
	MoodGood MoodValue = "good"
	// MoodNeutral marks an unremarkable day.
	MoodNeutral MoodValue = "neutral"
	// MoodBad marks a bad day.
	MoodBad MoodValue = "bad"
	// MoodNotAdded fills days the user skipped. Not recordable directly;
	// sync inserts these for the gap days since the last real entry.
	MoodNotAdded MoodValue = "not_added"
)

// MoodDayFormat is the canonical encoding of a mood's calendar day.
const MoodDayFormat = "2006-01-02"

// ValidMoodValue reports whether v may be written to the mood log.
func ValidMoodValue(v MoodValue) bool {
	switch v {
	case MoodGood, MoodNeutral, MoodBad:
		return true
	}
	return false
}

// Mood is one user's mood for one calendar day. At most one row exists
// per (user, day); syncing again on the same day overwrites the value.
type Mood struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_moods_user_day" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"-"`
	Day        string    `gorm:"size:10;not null;uniqueIndex:idx_moods_user_day" json:"day"`
	Value      MoodValue `gorm:"type:varchar(20);not null" json:"value"`
	Visibility string    `gorm:"type:varchar(20);not null;default:'private'" json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
