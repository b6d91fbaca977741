package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	SeedDefaultAccounts   bool
}

// NotificationConfig controls the async dispatch pipeline and mail
// routing.
type NotificationConfig struct {
	EmailFrom             string
	SupportInbox          string
	TasksInbox            string
	QueueSize             int
	MaxAttempts           int
	AttemptTimeoutSeconds int
	RetryBackoffMillis    int
	DedupeTTLHours        int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "chamados-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			SeedDefaultAccounts:   getEnvAsBool("AUTH_SEED_DEFAULT_ACCOUNTS", true),
		},
		Notification: NotificationConfig{
			EmailFrom:             getEnv("NOTIFY_EMAIL_FROM", "suporte@empresa.com"),
			SupportInbox:          getEnv("NOTIFY_SUPPORT_INBOX", "suporte@empresa.com"),
			TasksInbox:            getEnv("NOTIFY_TASKS_INBOX", "societario@empresa.com"),
			QueueSize:             getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			MaxAttempts:           getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
			AttemptTimeoutSeconds: getEnvAsInt("NOTIFY_ATTEMPT_TIMEOUT_SECONDS", 5),
			RetryBackoffMillis:    getEnvAsInt("NOTIFY_RETRY_BACKOFF_MILLIS", 250),
			DedupeTTLHours:        getEnvAsInt("NOTIFY_DEDUPE_TTL_HOURS", 24),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AttemptTimeout returns the per-delivery-attempt timeout.
func (n NotificationConfig) AttemptTimeout() time.Duration {
	if n.AttemptTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.AttemptTimeoutSeconds) * time.Second
}

// RetryBackoff returns the base backoff between delivery attempts.
func (n NotificationConfig) RetryBackoff() time.Duration {
	if n.RetryBackoffMillis <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(n.RetryBackoffMillis) * time.Millisecond
}

// DedupeTTL returns how long a delivery dedupe key is held.
func (n NotificationConfig) DedupeTTL() time.Duration {
	if n.DedupeTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(n.DedupeTTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
