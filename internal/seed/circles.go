package seed

import (
	"fmt"

	"mindbridge/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInCircle is a permanent starter circle every install ships with.
type BuiltInCircle struct {
	Name        string
	Description string
	Tags        []string
}

// BuiltInCircles defines the permanent starter circles.
var BuiltInCircles = []BuiltInCircle{
	{Name: "The Commons", Description: "General conversation for everyone.", Tags: []string{"general"}},
	{Name: "Mindful Mornings", Description: "Start the day with intention.", Tags: []string{"mindfulness", "habits"}},
	{Name: "Sleep Better", Description: "Wind-down routines and sleep hygiene.", Tags: []string{"sleep"}},
	{Name: "Anxiety Allies", Description: "Support for anxious days.", Tags: []string{"anxiety", "support"}},
	{Name: "Gratitude Garden", Description: "Share one good thing, every day.", Tags: []string{"gratitude"}},
	{Name: "Movement & Mood", Description: "Exercise as self-care.", Tags: []string{"fitness", "mood"}},
	{Name: "Creative Outlets", Description: "Art, music, and writing for the mind.", Tags: []string{"creativity"}},
	{Name: "Grief & Loss", Description: "A gentle place for hard seasons.", Tags: []string{"grief", "support"}},
}

// Circles upserts the permanent starter circles by name. Existing circles
// keep their membership and member count; only the descriptive fields are
// refreshed.
func Circles(db *gorm.DB) error {
	for _, item := range BuiltInCircles {
		circle := models.Circle{
			Name:        item.Name,
			Description: item.Description,
			Tags:        item.Tags,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "tags", "updated_at"}),
		}).Create(&circle).Error
		if err != nil {
			return fmt.Errorf("seed built-in circle %s: %w", item.Name, err)
		}
	}
	return nil
}
