package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"eventreg/internal/shared/config"
	"eventreg/pkg/logger"
)

// NotificationService hands notifications to a mail transport
type NotificationService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
	Start(ctx context.Context) error
	Stop() error
	HealthCheck(ctx context.Context) error
}

// NewNotificationService builds the transport selected by MAIL_TRANSPORT
func NewNotificationService(cfg *config.Config, l *logger.Logger) (NotificationService, error) {
	switch cfg.Email.Transport {
	case config.MailTransportLog, "":
		return NewDirectNotificationService(NewMockEmailService(l)), nil

	case config.MailTransportSMTP:
		emailService, err := NewSMTPEmailService(smtpConfigFrom(cfg), l)
		if err != nil {
			return nil, err
		}
		return NewDirectNotificationService(emailService), nil

	case config.MailTransportKafka:
		emailService, err := NewSMTPEmailService(smtpConfigFrom(cfg), l)
		if err != nil {
			return nil, err
		}
		return NewQueuedNotificationService(cfg, emailService, l)

	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Email.Transport)
	}
}

func smtpConfigFrom(cfg *config.Config) *SMTPConfig {
	return &SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		UseTLS:    true,
	}
}

// DirectNotificationService sends synchronously on the request path
type DirectNotificationService struct {
	emailService EmailService
}

func NewDirectNotificationService(emailService EmailService) *DirectNotificationService {
	return &DirectNotificationService{emailService: emailService}
}

func (d *DirectNotificationService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	notification.Status = NotificationStatusSending
	if err := d.emailService.SendNotification(ctx, notification); err != nil {
		notification.MarkFailed(err)
		return err
	}
	notification.MarkSent()
	return nil
}

func (d *DirectNotificationService) Start(ctx context.Context) error { return nil }

func (d *DirectNotificationService) Stop() error { return nil }

func (d *DirectNotificationService) HealthCheck(ctx context.Context) error {
	if d.emailService == nil {
		return fmt.Errorf("email service not configured")
	}
	return nil
}

// QueuedNotificationService publishes to Kafka; consumer workers deliver over SMTP
type QueuedNotificationService struct {
	producer   NotificationProducer
	consumer   NotificationConsumer
	numWorkers int
	logger     *logger.Logger

	isRunning bool
	mu        sync.RWMutex
}

func NewQueuedNotificationService(cfg *config.Config, emailService EmailService, l *logger.Logger) (*QueuedNotificationService, error) {
	producerConfig := DefaultKafkaProducerConfig()
	producerConfig.Brokers = cfg.Kafka.Brokers
	producerConfig.NotificationTopic = cfg.Kafka.NotificationTopic

	producer, err := NewKafkaNotificationProducer(producerConfig, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification producer: %w", err)
	}

	consumerConfig := DefaultConsumerConfig()
	consumerConfig.Brokers = cfg.Kafka.Brokers
	consumerConfig.Topics = []string{cfg.Kafka.NotificationTopic}
	consumerConfig.GroupID = cfg.Kafka.ConsumerGroupID

	consumer, err := NewKafkaNotificationConsumer(consumerConfig, emailService, l)
	if err != nil {
		_ = producer.Close()
		return nil, fmt.Errorf("failed to create notification consumer: %w", err)
	}

	return newQueuedNotificationService(producer, consumer, cfg.Kafka.NumConsumerWorkers, l), nil
}

func newQueuedNotificationService(producer NotificationProducer, consumer NotificationConsumer, numWorkers int, l *logger.Logger) *QueuedNotificationService {
	return &QueuedNotificationService{
		producer:   producer,
		consumer:   consumer,
		numWorkers: numWorkers,
		logger:     l,
	}
}

func (q *QueuedNotificationService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	return q.producer.PublishNotification(ctx, notification)
}

func (q *QueuedNotificationService) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.isRunning {
		return fmt.Errorf("notification service is already running")
	}

	if err := q.consumer.StartConsumers(ctx, q.numWorkers); err != nil {
		return fmt.Errorf("failed to start consumers: %w", err)
	}

	q.isRunning = true
	q.logger.Info("✅ Queued notification service started", slog.Int("workers", q.numWorkers))
	return nil
}

func (q *QueuedNotificationService) Stop() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.isRunning {
		return fmt.Errorf("notification service is not running")
	}

	if err := q.consumer.Stop(); err != nil {
		q.logger.WithError(err).Error("Error stopping consumer")
	}

	if err := q.producer.Close(); err != nil {
		q.logger.WithError(err).Error("Error closing producer")
	}

	q.isRunning = false
	return nil
}

func (q *QueuedNotificationService) HealthCheck(ctx context.Context) error {
	q.mu.RLock()
	isRunning := q.isRunning
	q.mu.RUnlock()

	if !isRunning {
		return fmt.Errorf("notification service is not running")
	}

	if err := q.producer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("producer health check failed: %w", err)
	}

	if err := q.consumer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("consumer health check failed: %w", err)
	}

	return nil
}
