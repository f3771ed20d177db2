package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the service.
type Config struct {
	Server   ServerConfig
	Batch    BatchConfig
	Retry    RetryConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	NATS     NATSConfig
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	HTTPPort     int
	Environment  string
	ServiceName  string
	LogLevel     string
	ShutdownTime time.Duration
}

// BatchConfig governs batch accumulation and job retention.
type BatchConfig struct {
	// DefaultSize is used when a handler does not specialize its batch size.
	DefaultSize int
	// OrderSize is the order handler's preferred batch size.
	OrderSize int
	// NotificationSize is the notification handler's preferred batch size.
	NotificationSize int
	// Timeout is the maximum age of a pending batch before the sweep flushes it,
	// measured from its first event.
	Timeout time.Duration
	// SweepInterval is the cadence of the age-based flush sweep.
	SweepInterval time.Duration
	// JobRetention is how long finished batch jobs stay visible to monitoring.
	JobRetention time.Duration
}

// RetryConfig governs per-event retry within batches and handler retries.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor int
}

// DatabaseConfig holds database configuration. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// Path is the sqlite database file when Driver is "sqlite".
	Path string
}

// KafkaConfig holds the event ingress configuration. Empty Brokers disables
// the consumer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NATSConfig holds the integration publisher configuration. Empty URL disables
// the publisher observer.
type NATSConfig struct {
	URL    string
	Stream string
}

// Load loads configuration from environment variables.
func Load(serviceName string) *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:     getEnvAsInt("HTTP_PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			ShutdownTime: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Batch: BatchConfig{
			DefaultSize:      getEnvAsInt("BATCH_DEFAULT_SIZE", 10),
			OrderSize:        getEnvAsInt("BATCH_ORDER_SIZE", 25),
			NotificationSize: getEnvAsInt("BATCH_NOTIFICATION_SIZE", 100),
			Timeout:          getEnvAsDuration("BATCH_TIMEOUT", 30*time.Second),
			SweepInterval:    getEnvAsDuration("BATCH_SWEEP_INTERVAL", 10*time.Second),
			JobRetention:     getEnvAsDuration("BATCH_JOB_RETENTION", 60*time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts:   getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:     getEnvAsDuration("RETRY_BASE_DELAY", 1*time.Second),
			BackoffFactor: getEnvAsInt("RETRY_BACKOFF_FACTOR", 2),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "eventflow"),
			Password: getEnv("DB_PASSWORD", "eventflow"),
			Database: getEnv("DB_NAME", "eventflow"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "./eventflow.db"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "domain-events"),
			GroupID: getEnv("KAFKA_GROUP_ID", serviceName),
		},
		NATS: NATSConfig{
			URL:    getEnv("NATS_URL", ""),
			Stream: getEnv("NATS_STREAM", "events-processed"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
