package registrations

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Registry stores participants. Counts are computed live on every call.
// Insert does not re-check uniqueness; callers dedupe first.
type Registry interface {
	Counter
	FindByEmail(ctx context.Context, email string) (*Participant, error)
	Insert(ctx context.Context, participant *Participant) error
	MarkVerified(ctx context.Context, email string) error
}

// MemoryRegistry is the in-process registry, kept in registration order.
// The mutex only protects the slice; it does not make check-then-insert atomic.
type MemoryRegistry struct {
	mu           sync.RWMutex
	participants []Participant
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{}
}

func (m *MemoryRegistry) CountTotal(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.participants), nil
}

func (m *MemoryRegistry) CountInDepartment(_ context.Context, department string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for i := range m.participants {
		if m.participants[i].HasDepartment(department) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryRegistry) FindByEmail(_ context.Context, email string) (*Participant, error) {
	normalized := normalizeEmail(email)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.participants {
		if normalizeEmail(m.participants[i].Email) == normalized {
			p := m.participants[i]
			p.Departments = append(p.Departments[:0:0], p.Departments...)
			return &p, nil
		}
	}
	return nil, ErrParticipantNotFound
}

func (m *MemoryRegistry) Insert(_ context.Context, participant *Participant) error {
	p := *participant
	p.Departments = append(p.Departments[:0:0], p.Departments...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants = append(m.participants, p)
	return nil
}

func (m *MemoryRegistry) MarkVerified(_ context.Context, email string) error {
	normalized := normalizeEmail(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for i := range m.participants {
		if normalizeEmail(m.participants[i].Email) == normalized {
			m.participants[i].Verified = true
			found = true
		}
	}
	if !found {
		return ErrParticipantNotFound
	}
	return nil
}

// List returns a copy of all participants in registration order
func (m *MemoryRegistry) List() []Participant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Participant(nil), m.participants...)
}

func normalizeEmail(email string) string {
	return strings.ToLower(email)
}

// EmailDirectory answers GET /verify_email
type EmailDirectory interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

type registryDirectory struct {
	registry Registry
}

// DirectoryFromRegistry answers /verify_email from the registrations themselves
func DirectoryFromRegistry(registry Registry) EmailDirectory {
	return &registryDirectory{registry: registry}
}

func (d *registryDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := d.registry.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrParticipantNotFound):
		return false, nil
	default:
		return false, err
	}
}
