package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const verificationSubject = "Please verify your email for event registration"

// VerificationMailer sends the link that carries a verification token
type VerificationMailer struct {
	service NotificationService
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewVerificationMailer(service NotificationService, baseURL string, ttl time.Duration) *VerificationMailer {
	return &VerificationMailer{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     time.Now,
	}
}

// VerificationLink is the public URL that completes verification
func (m *VerificationMailer) VerificationLink(token string) string {
	return m.baseURL + "/verify/" + token
}

func (m *VerificationMailer) SendVerification(ctx context.Context, participantID uuid.UUID, name, email string, departments []string, token string) error {
	expiresAt := m.now().Add(m.ttl)

	notification := NewNotificationBuilder().
		WithType(NotificationTypeEmailVerification).
		WithRecipient(participantID, email, name).
		WithSubject(verificationSubject).
		WithExpiration(&expiresAt).
		WithTemplateData(map[string]interface{}{
			"verification_link": m.VerificationLink(token),
			"departments":       strings.Join(departments, ", "),
			"expires_at":        expiresAt.Format(time.RFC1123),
		}).
		Build()

	return m.service.SendNotification(ctx, notification)
}
