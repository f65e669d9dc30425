package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage modes
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Insert modes for the registration check-then-insert sequence
const (
	InsertUnsynchronized = "unsynchronized"
	InsertSerialized     = "serialized"
)

// Mail transports
const (
	MailTransportLog   = "log"
	MailTransportSMTP  = "smtp"
	MailTransportKafka = "kafka"
)

// DefaultVerificationSecret is the development signing key; release builds must override it
const DefaultVerificationSecret = "change-me-verification-secret"

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// STORAGE_MODE selects the in-memory or the persistent variant
	StorageMode string

	Database DatabaseConfig
	Redis    RedisConfig

	Event        EventConfig
	Verification VerificationConfig

	RateLimit RateLimitConfig

	// Logging
	LogLevel string

	Email EmailConfig
	Kafka KafkaConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// LockTTL bounds how long a serialized registration may hold the insert lock
	LockTTL time.Duration

	// DirectoryCacheTTL is how long a known pre-existing user stays cached
	DirectoryCacheTTL time.Duration
}

// EventConfig holds the capacity limits and the insert discipline
type EventConfig struct {
	GlobalLimit      int
	DepartmentLimits map[string]int
	InsertMode       string
}

// VerificationConfig holds the email-verification token settings
type VerificationConfig struct {
	Secret        string
	TokenTTL      time.Duration
	PublicBaseURL string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled          bool          `json:"enabled"`
	WindowDuration   time.Duration `json:"window_duration"`
	DefaultRequests  int           `json:"default_requests"`
	PublicRequests   int           `json:"public_requests"`
	RegisterRequests int           `json:"register_requests"`
	VerifyRequests   int           `json:"verify_requests"`
	HealthRequests   int           `json:"health_requests"`
	WhitelistedIPs   []string      `json:"whitelisted_ips"`
}

// EmailConfig holds email configuration
type EmailConfig struct {
	Transport    string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// KafkaConfig holds the mail queue configuration
type KafkaConfig struct {
	Brokers            []string
	NotificationTopic  string
	ConsumerGroupID    string
	NumConsumerWorkers int
}

// DefaultDepartmentLimits is the department capacity mapping of this deployment
func DefaultDepartmentLimits() map[string]int {
	return map[string]int{
		"marketing":   10,
		"visual":      20,
		"event":       10,
		"design":      20,
		"development": 20,
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		StorageMode: strings.ToLower(getEnv("STORAGE_MODE", StorageMemory)),

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "eventreg_db"),
			User:     getEnv("DB_USER", "eventreg_user"),
			Password: getEnv("DB_PASSWORD", "eventreg_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			LockTTL:  getDurationEnv("REDIS_LOCK_TTL", 5*time.Second),

			DirectoryCacheTTL: getDurationEnv("REDIS_DIRECTORY_CACHE_TTL", 5*time.Minute),
		},

		Event: EventConfig{
			GlobalLimit:      getIntEnv("EVENT_GLOBAL_LIMIT", 80),
			DepartmentLimits: getLimitsEnv("EVENT_DEPARTMENT_LIMITS", DefaultDepartmentLimits()),
			InsertMode:       strings.ToLower(getEnv("REGISTRATION_INSERT_MODE", InsertUnsynchronized)),
		},

		Verification: VerificationConfig{
			Secret:        getEnv("VERIFICATION_SECRET", DefaultVerificationSecret),
			TokenTTL:      getDurationEnv("VERIFICATION_TOKEN_TTL", time.Hour),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:          getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:   getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests:  getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:   getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			RegisterRequests: getIntEnv("RATE_LIMIT_REGISTER_REQUESTS", 10),
			VerifyRequests:   getIntEnv("RATE_LIMIT_VERIFY_REQUESTS", 20),
			HealthRequests:   getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 300),
			WhitelistedIPs:   getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Email configuration
		Email: EmailConfig{
			Transport:    strings.ToLower(getEnv("MAIL_TRANSPORT", MailTransportLog)),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@eventreg.local"),
			FromName:     getEnv("SMTP_FROM_NAME", "Event Registration"),
		},

		Kafka: KafkaConfig{
			Brokers:            getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			NotificationTopic:  getEnv("NOTIFICATION_TOPIC", "registration-notifications"),
			ConsumerGroupID:    getEnv("CONSUMER_GROUP_ID", "eventreg-notification-workers"),
			NumConsumerWorkers: getIntEnv("NUM_CONSUMER_WORKERS", 3),
		},
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// getLimitsEnv parses "name=cap,name=cap". Any malformed pair discards the whole value.
func getLimitsEnv(key string, fallback map[string]int) map[string]int {
	pairs := getStringSliceEnv(key, nil)
	if len(pairs) == 0 {
		return fallback
	}

	limits := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return fallback
		}
		limit, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fallback
		}
		limits[strings.ToLower(strings.TrimSpace(name))] = limit
	}
	return limits
}

// Validate rejects settings that must not silently fall back
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageMode {
	case StorageMemory, StoragePostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_MODE %q", c.StorageMode))
	}

	if c.IsPersistent() && c.IsProduction() {
		if c.Verification.Secret == "" || c.Verification.Secret == DefaultVerificationSecret {
			errs = append(errs, errors.New("VERIFICATION_SECRET must be set in release mode"))
		}
	}

	return errors.Join(errs...)
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// IsPersistent reports whether the persistent variant is selected
func (c *Config) IsPersistent() bool {
	return c.StorageMode == StoragePostgres
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}
