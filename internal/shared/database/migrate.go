package database

import (
	"gorm.io/gorm"

	"eventreg/internal/registrations"
	"eventreg/internal/users"
)

// Migrate creates the registrations and pre-existing users tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&users.User{},
		&registrations.Participant{},
	); err != nil {
		return err
	}
	return MigrateConstraints(db)
}
