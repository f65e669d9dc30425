package registrations

import (
	"context"
	"fmt"
	"sort"
)

// KnownDepartments is the fixed set of department names this deployment recognises
var KnownDepartments = []string{"marketing", "visual", "event", "design", "development"}

// Capacity is the immutable limit configuration. Build it once with NewCapacity.
type Capacity struct {
	global      int
	departments map[string]int
	names       []string
}

// NewCapacity validates limits against KnownDepartments and copies them
func NewCapacity(global int, limits map[string]int) (*Capacity, error) {
	if global <= 0 {
		return nil, fmt.Errorf("global limit must be positive, got %d", global)
	}
	if len(limits) == 0 {
		return nil, fmt.Errorf("at least one department limit is required")
	}

	known := make(map[string]bool, len(KnownDepartments))
	for _, name := range KnownDepartments {
		known[name] = true
	}

	c := &Capacity{
		global:      global,
		departments: make(map[string]int, len(limits)),
		names:       make([]string, 0, len(limits)),
	}
	for name, limit := range limits {
		if !known[name] {
			return nil, fmt.Errorf("unknown department %q", name)
		}
		if limit <= 0 {
			return nil, fmt.Errorf("limit for department %q must be positive, got %d", name, limit)
		}
		c.departments[name] = limit
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)

	return c, nil
}

func (c *Capacity) GlobalLimit() int {
	return c.global
}

// DepartmentLimit returns the cap of a configured department
func (c *Capacity) DepartmentLimit(name string) (int, bool) {
	limit, ok := c.departments[name]
	return limit, ok
}

// Departments returns the configured department names, sorted
func (c *Capacity) Departments() []string {
	return append([]string(nil), c.names...)
}

// Counter is the read side of a Registry
type Counter interface {
	CountTotal(ctx context.Context) (int, error)
	CountInDepartment(ctx context.Context, department string) (int, error)
}

// Policy decides whether a candidate may join the requested departments
type Policy struct {
	capacity *Capacity
}

func NewPolicy(capacity *Capacity) *Policy {
	return &Policy{capacity: capacity}
}

// Evaluate checks the global cap once, then each department in the given order.
// The first unknown or full department rejects the whole request.
func (p *Policy) Evaluate(ctx context.Context, counts Counter, departments []string) error {
	total, err := counts.CountTotal(ctx)
	if err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}
	if total >= p.capacity.GlobalLimit() {
		return &CapacityError{Scope: ScopeGlobal, Limit: p.capacity.GlobalLimit()}
	}

	for _, department := range departments {
		limit, ok := p.capacity.DepartmentLimit(department)
		if !ok {
			return &InvalidDepartmentError{Name: department}
		}

		count, err := counts.CountInDepartment(ctx, department)
		if err != nil {
			return fmt.Errorf("failed to count department %s: %w", department, err)
		}
		if count >= limit {
			return &CapacityError{Scope: ScopeDepartment, Department: department, Limit: limit}
		}
	}

	return nil
}
