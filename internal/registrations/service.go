package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"eventreg/internal/verification"
	"eventreg/pkg/logger"
)

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error)
	IsEmailRegistered(ctx context.Context, email string) (bool, error)
	Limits(ctx context.Context) (*LimitsResponse, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
	VerificationEnabled() bool
}

// Mailer delivers the verification link for a freshly persisted participant
type Mailer interface {
	SendVerification(ctx context.Context, participantID uuid.UUID, name, email string, departments []string, token string) error
}

// ServiceDeps wires a Service. Tokens and Mailer are both nil for the in-memory deployment.
type ServiceDeps struct {
	Registry  Registry
	Directory EmailDirectory
	Capacity  *Capacity
	Guard     InsertGuard
	Tokens    verification.TokenService
	Mailer    Mailer
	Logger    *logger.Logger
}

type service struct {
	registry  Registry
	directory EmailDirectory
	capacity  *Capacity
	policy    *Policy
	guard     InsertGuard
	tokens    verification.TokenService
	mailer    Mailer
	validator *validator.Validate
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(deps ServiceDeps) (Service, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if deps.Capacity == nil {
		return nil, fmt.Errorf("capacity is required")
	}
	if (deps.Tokens == nil) != (deps.Mailer == nil) {
		return nil, fmt.Errorf("token service and mailer must be configured together")
	}

	s := &service{
		registry:  deps.Registry,
		directory: deps.Directory,
		capacity:  deps.Capacity,
		policy:    NewPolicy(deps.Capacity),
		guard:     deps.Guard,
		tokens:    deps.Tokens,
		mailer:    deps.Mailer,
		validator: validator.New(),
		logger:    deps.Logger,
		now:       time.Now,
	}
	if s.directory == nil {
		s.directory = DirectoryFromRegistry(deps.Registry)
	}
	if s.guard == nil {
		s.guard = UnsynchronizedGuard{}
	}
	if s.logger == nil {
		s.logger = logger.GetDefault()
	}
	return s, nil
}

func (s *service) VerificationEnabled() bool {
	return s.tokens != nil
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	if req == nil {
		return nil, ErrMissingFields
	}
	if err := s.validate(req); err != nil {
		s.logger.LogRegistrationRejected(ctx, req.Email, err.Error())
		return nil, err
	}

	participant, err := s.admit(ctx, req)
	if err != nil {
		s.logger.LogRegistrationRejected(ctx, req.Email, err.Error())
		return nil, err
	}

	s.logger.LogRegistrationAccepted(ctx, participant.ID.String(), participant.Email, participant.Departments)

	if s.VerificationEnabled() {
		s.dispatchVerification(ctx, participant)
	}

	return &RegisterResponse{
		Message:     "Registration successful",
		Participant: toParticipantResponse(participant, s.VerificationEnabled()),
	}, nil
}

func (s *service) validate(req *RegisterRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return ErrMissingFields
	}
	return nil
}

// admit runs dedupe, capacity check and insert under the configured guard
func (s *service) admit(ctx context.Context, req *RegisterRequest) (*Participant, error) {
	release, err := s.guard.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	_, err = s.registry.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, ErrParticipantNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	departments := uniqueDepartments(req.Departments)
	if err := s.policy.Evaluate(ctx, s.registry, departments); err != nil {
		return nil, err
	}

	participant := &Participant{
		ID:          uuid.New(),
		Name:        req.Name,
		Email:       req.Email,
		Departments: departments,
		CreatedAt:   s.now(),
	}
	if err := s.registry.Insert(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to save participant: %w", err)
	}

	return participant, nil
}

// dispatchVerification never fails the registration; the record stays unverified
func (s *service) dispatchVerification(ctx context.Context, participant *Participant) {
	token, err := s.tokens.Issue(participant.Email)
	if err != nil {
		s.logger.LogMailDispatchFailed(ctx, participant.Email, fmt.Errorf("issue token: %w", err))
		return
	}

	err = s.mailer.SendVerification(ctx, participant.ID, participant.Name, participant.Email, participant.Departments, token)
	if err != nil {
		s.logger.LogMailDispatchFailed(ctx, participant.Email, err)
	}
}

func (s *service) IsEmailRegistered(ctx context.Context, email string) (bool, error) {
	return s.directory.EmailExists(ctx, email)
}

func (s *service) Limits(ctx context.Context) (*LimitsResponse, error) {
	total, err := s.registry.CountTotal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	resp := &LimitsResponse{
		TotalParticipants: total,
		GlobalLimit:       s.capacity.GlobalLimit(),
		GlobalFull:        total >= s.capacity.GlobalLimit(),
		Departments:       make(map[string]DepartmentUsage),
	}

	for _, name := range s.capacity.Departments() {
		count, err := s.registry.CountInDepartment(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to count department %s: %w", name, err)
		}
		limit, _ := s.capacity.DepartmentLimit(name)
		resp.Departments[name] = DepartmentUsage{Count: count, Limit: limit, Full: count >= limit}
	}

	return resp, nil
}

func (s *service) VerifyEmail(ctx context.Context, token string) (string, error) {
	if !s.VerificationEnabled() {
		return "", ErrVerificationOff
	}

	email, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return "", err
	}

	if err := s.registry.MarkVerified(ctx, email); err != nil {
		return "", err
	}

	s.logger.LogEmailVerified(ctx, email)
	return email, nil
}

// uniqueDepartments drops repeated names, keeping first-seen order
func uniqueDepartments(departments []string) []string {
	seen := make(map[string]bool, len(departments))
	out := make([]string, 0, len(departments))
	for _, d := range departments {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
