package registrations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type MemoryRegistrySuite struct {
	suite.Suite
	registry *MemoryRegistry
	ctx      context.Context
}

func TestMemoryRegistrySuite(t *testing.T) {
	suite.Run(t, new(MemoryRegistrySuite))
}

func (s *MemoryRegistrySuite) SetupTest() {
	s.registry = NewMemoryRegistry()
	s.ctx = context.Background()
}

func (s *MemoryRegistrySuite) insert(email string, departments ...string) *Participant {
	p := &Participant{ID: uuid.New(), Name: "Test", Email: email, Departments: departments, CreatedAt: time.Now()}
	s.Require().NoError(s.registry.Insert(s.ctx, p))
	return p
}

func (s *MemoryRegistrySuite) TestCountsAreLive() {
	s.insert("a@example.com", "marketing", "design")
	s.insert("b@example.com", "design")

	total, err := s.registry.CountTotal(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, total)

	design, err := s.registry.CountInDepartment(s.ctx, "design")
	s.Require().NoError(err)
	s.Equal(2, design)

	marketing, err := s.registry.CountInDepartment(s.ctx, "marketing")
	s.Require().NoError(err)
	s.Equal(1, marketing)

	event, err := s.registry.CountInDepartment(s.ctx, "event")
	s.Require().NoError(err)
	s.Zero(event)
}

func (s *MemoryRegistrySuite) TestFindByEmailIgnoresCase() {
	inserted := s.insert("Ada@Example.com", "event")

	found, err := s.registry.FindByEmail(s.ctx, "ada@EXAMPLE.com")
	s.Require().NoError(err)
	s.Equal(inserted.ID, found.ID)
	s.Equal("Ada@Example.com", found.Email)

	_, err = s.registry.FindByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, ErrParticipantNotFound)
}

func (s *MemoryRegistrySuite) TestStoredRecordsAreCopies() {
	p := s.insert("a@example.com", "event")
	p.Departments[0] = "design"

	found, err := s.registry.FindByEmail(s.ctx, "a@example.com")
	s.Require().NoError(err)
	s.Equal("event", found.Departments[0])

	found.Departments[0] = "visual"
	count, err := s.registry.CountInDepartment(s.ctx, "event")
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *MemoryRegistrySuite) TestMarkVerified() {
	s.insert("a@example.com", "event")

	s.Require().NoError(s.registry.MarkVerified(s.ctx, "A@example.com"))
	s.Require().NoError(s.registry.MarkVerified(s.ctx, "a@example.com"))

	found, err := s.registry.FindByEmail(s.ctx, "a@example.com")
	s.Require().NoError(err)
	s.True(found.Verified)

	s.ErrorIs(s.registry.MarkVerified(s.ctx, "b@example.com"), ErrParticipantNotFound)
}

func (s *MemoryRegistrySuite) TestListKeepsRegistrationOrder() {
	s.insert("a@example.com", "event")
	s.insert("b@example.com", "event")
	s.insert("c@example.com", "event")

	list := s.registry.List()
	s.Require().Len(list, 3)
	s.Equal("a@example.com", list[0].Email)
	s.Equal("c@example.com", list[2].Email)
}

func (s *MemoryRegistrySuite) TestDirectoryFromRegistry() {
	s.insert("a@example.com", "event")
	directory := DirectoryFromRegistry(s.registry)

	exists, err := directory.EmailExists(s.ctx, "A@EXAMPLE.COM")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = directory.EmailExists(s.ctx, "b@example.com")
	s.Require().NoError(err)
	s.False(exists)
}
