package registrations

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Participant is one registration. Each department in Departments counts toward its own cap.
type Participant struct {
	ID          uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string         `json:"name" gorm:"not null"`
	Email       string         `json:"email" gorm:"not null;index"`
	Departments pq.StringArray `json:"departments" gorm:"type:text[];not null"`
	Verified    bool           `json:"verified" gorm:"not null;default:false"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index"`
}

// TableName keeps registrations apart from the pre-existing users table
func (Participant) TableName() string {
	return "event_registrations"
}

// HasDepartment reports membership of the named department
func (p *Participant) HasDepartment(name string) bool {
	for _, d := range p.Departments {
		if d == name {
			return true
		}
	}
	return false
}
