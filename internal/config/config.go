package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Queue sequencer modes.
const (
	SequencerMax   = "max"
	SequencerRedis = "redis"
)

// Auth modes. AuthDev takes the bearer token itself as the user id and is
// only meant for local runs.
const (
	AuthOIDC = "oidc"
	AuthDev  = "dev"
)

// Config holds all configuration for the media tracker.
type Config struct {
	DB        DBConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	TMDB      TMDBConfig
	OIDC      OIDCConfig
	RateLimit RateLimitConfig
	Sentry    SentryConfig

	Storage        string
	Sequencer      string
	Port           string
	LogLevel       slog.Level
	MetricsEnabled bool
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SSLRootCert string
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// MongoConfig holds MongoDB configuration.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey  string
	BaseURL string
}

// OIDCConfig points at the identity provider that issues session tokens.
// Mode defaults to AuthDev for the memory backend and AuthOIDC otherwise.
type OIDCConfig struct {
	Mode        string
	ProviderURL string
	ClientID    string
}

// RateLimitConfig holds the fixed-window limiter settings.
type RateLimitConfig struct {
	Max           int
	WindowSeconds int
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN         string
	Environment string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	rateLimitMax, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MAX: %w", err)
	}
	rateLimitWindow, err := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW_SECONDS: %w", err)
	}
	storage := strings.ToLower(getEnv("STORAGE_BACKEND", StoragePostgres))
	authMode := AuthOIDC
	if storage == StorageMemory {
		authMode = AuthDev
	}

	cfg := &Config{
		DB: DBConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "media_tracker"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
			Database: getEnv("MONGO_DATABASE", "media_tracker"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		TMDB: TMDBConfig{
			APIKey:  getEnv("TMDB_API_KEY", ""),
			BaseURL: getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		},
		OIDC: OIDCConfig{
			Mode:        strings.ToLower(getEnv("AUTH_MODE", authMode)),
			ProviderURL: getEnv("OIDC_PROVIDER_URL", ""),
			ClientID:    getEnv("OIDC_CLIENT_ID", ""),
		},
		RateLimit: RateLimitConfig{
			Max:           rateLimitMax,
			WindowSeconds: rateLimitWindow,
		},
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Environment: getEnv("SENTRY_ENVIRONMENT", "development"),
		},
		MetricsEnabled: getEnv("METRICS_ENABLED", "true") != "false",
		Storage:        storage,
		Sequencer:      strings.ToLower(getEnv("QUEUE_SEQUENCER", SequencerMax)),
		Port:           getEnv("SERVER_PORT", "8080"),
		LogLevel:       parseLevel(getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: want %q or %q", c.Storage, StoragePostgres, StorageMemory)
	}
	switch c.Sequencer {
	case SequencerMax, SequencerRedis:
	default:
		return fmt.Errorf("invalid QUEUE_SEQUENCER %q: want %q or %q", c.Sequencer, SequencerMax, SequencerRedis)
	}
	switch c.OIDC.Mode {
	case AuthDev:
	case AuthOIDC:
		if c.OIDC.ProviderURL == "" {
			return fmt.Errorf("OIDC_PROVIDER_URL is required when AUTH_MODE is %q", AuthOIDC)
		}
	default:
		return fmt.Errorf("invalid AUTH_MODE %q: want %q or %q", c.OIDC.Mode, AuthOIDC, AuthDev)
	}
	if c.RateLimit.Max < 1 {
		c.RateLimit.Max = 100
	}
	if c.RateLimit.WindowSeconds < 1 {
		c.RateLimit.WindowSeconds = 60
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
