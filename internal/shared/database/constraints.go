package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the lookup indexes used by the registration queries.
// The email index is deliberately not unique; deduplication happens in the service.
func MigrateConstraints(db *gorm.DB) error {
	// Case-insensitive email lookups
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_event_registrations_email_lower
		ON event_registrations (LOWER(email));
	`).Error
	if err != nil {
		return err
	}

	// Department membership counts use array containment
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_event_registrations_departments
		ON event_registrations USING GIN (departments);
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_users_email_lower
		ON users (LOWER(email));
	`).Error
	if err != nil {
		return err
	}

	return nil
}
