package database

import "mindbridge/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Circle{},
		&models.CircleMembership{},
		&models.CircleJoinRequest{},
		&models.Post{},
		&models.Comment{},
		&models.Journal{},
		&models.Mood{},
		&models.Notification{},
		&models.Feedback{},
	}
}
