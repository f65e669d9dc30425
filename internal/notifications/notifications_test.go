package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventreg/internal/shared/config"
	"eventreg/pkg/logger"
)

func TestVerificationMailer_BuildsLinkAndExpiry(t *testing.T) {
	mock := NewMockEmailService(logger.Discard())
	mailer := NewVerificationMailer(NewDirectNotificationService(mock), "https://reg.example.com/", time.Hour)

	id := uuid.New()
	err := mailer.SendVerification(context.Background(), id, "Ada", "ada@example.com", []string{"marketing", "design"}, "tok123")
	require.NoError(t, err)

	sent := mock.Sent()
	require.Len(t, sent, 1)
	n := sent[0]
	assert.Equal(t, NotificationTypeEmailVerification, n.Type)
	assert.Equal(t, NotificationPriorityHigh, n.Priority)
	assert.Equal(t, id, n.RecipientID)
	assert.Equal(t, "ada@example.com", n.RecipientEmail)
	assert.Equal(t, "https://reg.example.com/verify/tok123", n.TemplateData["verification_link"])
	assert.Equal(t, "marketing, design", n.TemplateData["departments"])
	require.NotNil(t, n.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *n.ExpiresAt, time.Minute)
	assert.Equal(t, NotificationStatusSent, n.Status)
}

func TestNewNotificationService_Transports(t *testing.T) {
	cfg := config.Load()

	cfg.Email.Transport = config.MailTransportLog
	svc, err := NewNotificationService(cfg, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &DirectNotificationService{}, svc)

	cfg.Email.Transport = config.MailTransportSMTP
	cfg.Email.SMTPHost = ""
	_, err = NewNotificationService(cfg, logger.Discard())
	assert.ErrorContains(t, err, "SMTP host is required")

	cfg.Email.Transport = "pigeon"
	_, err = NewNotificationService(cfg, logger.Discard())
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := string(buildMessage("Event Registration", "noreply@example.com", "ada@example.com", "Hello", "<p>hi</p>", "hi", now))

	assert.Contains(t, msg, "From: Event Registration <noreply@example.com>\r\n")
	assert.Contains(t, msg, "To: ada@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8")
	assert.True(t, strings.HasSuffix(msg, "--\r\n"))
}

func TestRenderContent_Verification(t *testing.T) {
	n := NewNotificationBuilder().
		WithType(NotificationTypeEmailVerification).
		WithRecipient(uuid.New(), "ada@example.com", "Ada").
		WithTemplateData(map[string]interface{}{
			"verification_link": "https://x/verify/abc",
			"departments":       "event",
			"expires_at":        "soon",
		}).
		Build()

	html, text := renderContent(n)
	assert.Contains(t, html, `href="https://x/verify/abc"`)
	assert.Contains(t, text, "https://x/verify/abc")
	assert.Contains(t, text, "Hi Ada")
}

func TestKafkaProducer_Publish(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var n EmailNotification
		if err := json.Unmarshal(val, &n); err != nil {
			return err
		}
		if n.Status != NotificationStatusQueued {
			return errors.New("notification not marked queued")
		}
		if n.RecipientEmail != "ada@example.com" {
			return errors.New("unexpected recipient")
		}
		return nil
	})

	producer := newKafkaNotificationProducer(sp, DefaultKafkaProducerConfig(), logger.Discard())
	n := NewNotificationBuilder().
		WithType(NotificationTypeEmailVerification).
		WithRecipient(uuid.New(), "ada@example.com", "Ada").
		Build()

	require.NoError(t, producer.PublishNotification(context.Background(), n))
	require.NoError(t, producer.Close())
}

func TestKafkaProducer_PublishFailureMarksNotification(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := newKafkaNotificationProducer(sp, DefaultKafkaProducerConfig(), logger.Discard())
	n := NewNotificationBuilder().WithType(NotificationTypeEmailVerification).Build()

	err := producer.PublishNotification(context.Background(), n)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.Equal(t, NotificationStatusFailed, n.Status)
	require.NotNil(t, n.LastError)
	require.NoError(t, producer.Close())
}

type flakyEmailService struct {
	failures int32
	calls    int32
}

func (f *flakyEmailService) SendNotification(ctx context.Context, n *EmailNotification) error {
	call := atomic.AddInt32(&f.calls, 1)
	if call <= f.failures {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (f *flakyEmailService) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	return nil
}

func newHandler(email EmailService, maxRetries int) *ConsumerGroupHandler {
	cfg := DefaultConsumerConfig()
	cfg.MaxRetries = maxRetries
	cfg.RetryBackoffDuration = time.Millisecond
	return &ConsumerGroupHandler{config: cfg, emailService: email, logger: logger.Discard()}
}

func messageFor(t *testing.T, n *EmailNotification) *sarama.ConsumerMessage {
	t.Helper()
	value, err := n.ToJSON()
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "registration-notifications", Value: value}
}

func TestConsumer_RetriesUntilDelivered(t *testing.T) {
	email := &flakyEmailService{failures: 2}
	handler := newHandler(email, 3)

	n := NewNotificationBuilder().WithType(NotificationTypeEmailVerification).Build()
	require.NoError(t, handler.processMessage(context.Background(), messageFor(t, n)))
	assert.Equal(t, int32(3), atomic.LoadInt32(&email.calls))
}

func TestConsumer_RetryBookkeepingOnNotification(t *testing.T) {
	email := &flakyEmailService{failures: 1}
	handler := newHandler(email, 3)

	n := NewNotificationBuilder().WithType(NotificationTypeEmailVerification).WithMaxRetries(3).Build()
	require.NoError(t, handler.executeWithRetry(context.Background(), n))
	assert.Equal(t, 1, n.RetryCount)
	assert.Equal(t, NotificationStatusRetrying, n.Status)
	require.NotNil(t, n.LastError)
}

func TestConsumer_GivesUp(t *testing.T) {
	email := &flakyEmailService{failures: 100}
	handler := newHandler(email, 2)

	n := NewNotificationBuilder().WithType(NotificationTypeEmailVerification).Build()
	err := handler.processMessage(context.Background(), messageFor(t, n))
	assert.ErrorContains(t, err, "giving up after 3 attempts")
}

func TestConsumer_SkipsExpired(t *testing.T) {
	email := &flakyEmailService{}
	handler := newHandler(email, 3)

	past := time.Now().Add(-time.Minute)
	n := NewNotificationBuilder().WithType(NotificationTypeEmailVerification).WithExpiration(&past).Build()

	require.NoError(t, handler.processMessage(context.Background(), messageFor(t, n)))
	assert.Equal(t, int32(0), atomic.LoadInt32(&email.calls))
}

func TestConsumer_RejectsGarbage(t *testing.T) {
	handler := newHandler(&flakyEmailService{}, 0)
	err := handler.processMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("{")})
	assert.Error(t, err)
}

type stubConsumer struct {
	started, stopped bool
}

func (s *stubConsumer) StartConsumers(ctx context.Context, numWorkers int) error {
	s.started = true
	return nil
}

func (s *stubConsumer) Stop() error {
	s.stopped = true
	return nil
}

func (s *stubConsumer) HealthCheck(ctx context.Context) error { return nil }

func TestQueuedNotificationService_Lifecycle(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndSucceed()

	consumer := &stubConsumer{}
	svc := newQueuedNotificationService(newKafkaNotificationProducer(sp, DefaultKafkaProducerConfig(), logger.Discard()), consumer, 2, logger.Discard())
	ctx := context.Background()

	assert.Error(t, svc.HealthCheck(ctx))
	require.NoError(t, svc.Start(ctx))
	assert.Error(t, svc.Start(ctx))
	assert.True(t, consumer.started)
	require.NoError(t, svc.HealthCheck(ctx))

	n := NewNotificationBuilder().WithType(NotificationTypeEmailVerification).Build()
	require.NoError(t, svc.SendNotification(ctx, n))

	require.NoError(t, svc.Stop())
	assert.True(t, consumer.stopped)
	assert.Error(t, svc.Stop())
}

func TestNotificationRetryBookkeeping(t *testing.T) {
	n := NewNotificationBuilder().WithType(NotificationTypeEmailVerification).WithMaxRetries(1).Build()

	n.MarkFailed(errors.New("boom"))
	n.IncrementRetry()
	assert.Equal(t, NotificationStatusExpired, n.Status)
	assert.Equal(t, 1, n.RetryCount)
}
