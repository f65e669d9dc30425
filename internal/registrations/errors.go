package registrations

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrVerificationOff     = errors.New("email verification is not enabled")
)

// CapacityScope says which limit rejected a registration
type CapacityScope string

const (
	ScopeGlobal     CapacityScope = "global"
	ScopeDepartment CapacityScope = "department"
)

// CapacityError is returned when the global cap or a department cap is reached
type CapacityError struct {
	Scope      CapacityScope
	Department string
	Limit      int
}

func (e *CapacityError) Error() string {
	if e.Scope == ScopeGlobal {
		return fmt.Sprintf("global participant limit reached (max %d)", e.Limit)
	}
	return fmt.Sprintf("department %q is full", e.Department)
}

// InvalidDepartmentError is returned for a department outside the configured mapping
type InvalidDepartmentError struct {
	Name string
}

func (e *InvalidDepartmentError) Error() string {
	return fmt.Sprintf("invalid department: %s", e.Name)
}
