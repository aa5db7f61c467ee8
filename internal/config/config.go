package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	LogLevel string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string
	TokenTTL  time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxLease        time.Duration

	AuditWorkers   int
	AuditBatchSize int
	AuditTimeout   time.Duration

	CacheWarmLimit int

	AdminUsername string
	AdminPassword string

	// EnvFile is the env file that was loaded, empty when none was found.
	EnvFile string
}

// LoadEnv looks for .env next to the working directory or up to two levels
// above it, falling back to .example.env, and returns the path it loaded.
// Missing files are not an error.
func LoadEnv() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dirs := []string{
		wd,
		filepath.Join(wd, ".."),
		filepath.Join(wd, "..", ".."),
	}

	for _, name := range []string{".env", ".example.env"} {
		for _, dir := range dirs {
			envPath := filepath.Join(dir, name)
			if err := godotenv.Load(envPath); err == nil {
				return envPath
			}
		}
	}
	return ""
}

func Load() (*Config, error) {
	envFile := LoadEnv()

	cfg := &Config{
		EnvFile:       envFile,
		HTTPPort:      get("HTTP_PORT", "9000"),
		LogLevel:      get("LOG_LEVEL", "info"),
		DBHost:        get("DB_HOST", "localhost"),
		DBUser:        get("POSTGRES_USER", "postgres"),
		DBPassword:    get("POSTGRES_PASSWORD", "postgres"),
		DBName:        get("POSTGRES_DB", "courier"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    get("KAFKA_TOPIC", "delivery_events"),
		KafkaGroupID:  get("KAFKA_GROUP_ID", "delivery-events-consumer-group"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	var err error
	if cfg.DBPort, err = getInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OutboxPollInterval, err = getDuration("OUTBOX_POLL_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.OutboxBatchSize, err = getInt("OUTBOX_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.OutboxMaxAttempts, err = getInt("OUTBOX_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.OutboxLease, err = getDuration("OUTBOX_PROCESSING_LEASE", time.Minute); err != nil {
		return nil, err
	}
	if cfg.AuditWorkers, err = getInt("AUDIT_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.AuditBatchSize, err = getInt("AUDIT_BATCH_SIZE", 5); err != nil {
		return nil, err
	}
	if cfg.AuditTimeout, err = getDuration("AUDIT_TIMEOUT", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.CacheWarmLimit, err = getInt("CACHE_WARM_LIMIT", 500); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive duration, got %q", key, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
