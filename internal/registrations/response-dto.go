package registrations

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Departments []string   `json:"departments"`
	Verified    *bool      `json:"verified,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

type RegisterResponse struct {
	Message     string              `json:"message"`
	Participant ParticipantResponse `json:"participant"`
}

type EmailStatusResponse struct {
	Email      string `json:"email"`
	Registered bool   `json:"registered"`
}

type DepartmentUsage struct {
	Count int  `json:"count"`
	Limit int  `json:"limit"`
	Full  bool `json:"full"`
}

type LimitsResponse struct {
	TotalParticipants int                        `json:"total_participants"`
	GlobalLimit       int                        `json:"global_limit"`
	GlobalFull        bool                       `json:"global_full"`
	Departments       map[string]DepartmentUsage `json:"departments"`
}

type VerifyResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// toParticipantResponse includes verification state only when verification is enabled
func toParticipantResponse(p *Participant, withVerification bool) ParticipantResponse {
	resp := ParticipantResponse{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Departments: append([]string{}, p.Departments...),
	}
	if withVerification {
		verified := p.Verified
		createdAt := p.CreatedAt
		resp.Verified = &verified
		resp.CreatedAt = &createdAt
	}
	return resp
}
