package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"eventreg/pkg/logger"
)

// EmailService interface for sending emails
type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
	SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
}

// SMTPEmailService is a real SMTP implementation of the EmailService interface
type SMTPEmailService struct {
	config *SMTPConfig
	logger *logger.Logger
}

// NewSMTPEmailService creates a new SMTP email service
func NewSMTPEmailService(config *SMTPConfig, l *logger.Logger) (*SMTPEmailService, error) {
	if err := validateSMTPConfig(config); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}

	return &SMTPEmailService{
		config: config,
		logger: l,
	}, nil
}

// validateSMTPConfig validates SMTP configuration
func validateSMTPConfig(config *SMTPConfig) error {
	if config == nil {
		return fmt.Errorf("SMTP config is nil")
	}

	if config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}

	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}

	if config.Username == "" {
		return fmt.Errorf("SMTP username is required")
	}

	if config.Password == "" {
		return fmt.Errorf("SMTP password is required")
	}

	if config.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}

	return nil
}

// SendNotification renders and sends a notification via email
func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	s.logger.InfoContext(ctx, "📧 Sending notification",
		slog.String("type", string(notification.Type)),
		slog.String("recipient", notification.RecipientEmail),
	)

	htmlBody, textBody := renderContent(notification)
	return s.SendHTML(ctx, notification.RecipientEmail, notification.Subject, htmlBody, textBody)
}

// SendHTML sends an HTML email
func (s *SMTPEmailService) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	message := buildMessage(s.config.FromName, s.config.FromEmail, to, subject, htmlBody, textBody, time.Now())

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var err error
	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, to, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message)
	}

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.InfoContext(ctx, "📧 Email sent", slog.String("recipient", to))
	return nil
}

// sendWithSTARTTLS sends email with STARTTLS encryption
func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	tlsconfig := &tls.Config{
		ServerName: s.config.Host,
	}

	if err = client.StartTLS(tlsconfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return w.Close()
}

// buildMessage creates a multipart/alternative message with proper headers
func buildMessage(fromName, fromEmail, to, subject, htmlBody, textBody string, now time.Time) []byte {
	boundary := "boundary_" + strconv.FormatInt(now.UnixNano(), 10)

	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", fromName, fromEmail),
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Date":         now.Format(time.RFC1123Z),
		"Content-Type": fmt.Sprintf("multipart/alternative; boundary=%s", boundary),
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	b.WriteString("\r\n")

	if textBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(textBody + "\r\n")
	}

	if htmlBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(htmlBody + "\r\n")
	}

	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

// renderContent creates the email bodies for a notification type
func renderContent(notification *EmailNotification) (string, string) {
	data := notification.TemplateData

	switch notification.Type {
	case NotificationTypeEmailVerification:
		htmlBody := fmt.Sprintf(`
			<h2>Confirm your registration</h2>
			<p>Hi %s,</p>
			<p>Thanks for registering for <strong>%v</strong>.</p>
			<p>Please confirm your email address by opening the link below:</p>
			<p><a href="%v">%v</a></p>
			<p>The link expires at %v.</p>
		`,
			notification.RecipientName,
			data["departments"],
			data["verification_link"],
			data["verification_link"],
			data["expires_at"],
		)

		textBody := fmt.Sprintf(
			"Hi %s,\n\nThanks for registering for %v.\nConfirm your email address here: %v\nThe link expires at %v.\n",
			notification.RecipientName,
			data["departments"],
			data["verification_link"],
			data["expires_at"],
		)

		return htmlBody, textBody

	default:
		htmlBody := fmt.Sprintf("<h2>%s</h2><p>Hi %s,</p>", notification.Subject, notification.RecipientName)
		textBody := fmt.Sprintf("Hi %s,\n\n%s\n", notification.RecipientName, notification.Subject)
		return htmlBody, textBody
	}
}

// MockEmailService logs instead of sending and remembers what it was asked to send
type MockEmailService struct {
	logger *logger.Logger

	mu   sync.Mutex
	sent []*EmailNotification
}

// NewMockEmailService creates a new mock email service
func NewMockEmailService(l *logger.Logger) *MockEmailService {
	return &MockEmailService{logger: l}
}

// SendNotification records a notification
func (s *MockEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	s.logger.InfoContext(ctx, "📧 [MOCK] Sending notification",
		slog.String("type", string(notification.Type)),
		slog.String("recipient", notification.RecipientEmail),
		slog.Any("template_data", notification.TemplateData),
	)

	s.mu.Lock()
	s.sent = append(s.sent, notification)
	s.mu.Unlock()
	return nil
}

// SendHTML logs a mock HTML email
func (s *MockEmailService) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	s.logger.InfoContext(ctx, "📧 [MOCK] Sending email",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}

// Sent returns the notifications recorded so far
func (s *MockEmailService) Sent() []*EmailNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*EmailNotification(nil), s.sent...)
}
