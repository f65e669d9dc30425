package users

import (
	"time"

	"github.com/google/uuid"
)

// Role of a pre-existing user
type Role string

const (
	RoleUser   Role = "USER"
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// User is a pre-existing account, looked up by /verify_email. It is never written by /register.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	FirstName string    `json:"first_name" gorm:"not null"`
	LastName  string    `json:"last_name" gorm:"not null"`
	Role      Role      `json:"role" gorm:"not null;default:'USER'"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleUser, RoleMember, RoleAdmin:
		return true
	default:
		return false
	}
}
