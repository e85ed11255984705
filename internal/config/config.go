package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for both services and the admin CLI.
type Config struct {
	Identity         AppConfig
	Support          AppConfig
	IdentityPostgres PostgresConfig
	SupportPostgres  PostgresConfig
	Redis            RedisConfig
	Logger           LoggerConfig
	IdentityClient   IdentityClientConfig
	Archive          ArchiveConfig
	RateLimit        RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
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

// IdentityClientConfig tunes the resource-side validation client. The positive
// cache TTL bounds how long a revoked key keeps working against the support
// service, so it must stay small (≤ 30 seconds).
type IdentityClientConfig struct {
	BaseURL            string
	TimeoutMillis      int
	CacheCapacity      int
	PositiveTTLSeconds int
	NegativeTTLSeconds int
}

// ArchiveConfig bounds attachment bundle ingestion.
type ArchiveConfig struct {
	Root                 string
	MaxUncompressedBytes int64
	MaxEntries           int
	MaxCompressionRatio  float64
}

// RateLimitConfig bounds repeated validation attempts per key prefix.
type RateLimitConfig struct {
	ValidatePerMinute int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		Identity: AppConfig{
			Name:                  getEnv("IDENTITY_APP_NAME", "curadesk-identityd"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("IDENTITY_HOST", "0.0.0.0"),
			Port:                  getEnv("IDENTITY_PORT", "3001"),
			RequestTimeoutSeconds: getEnvAsInt("IDENTITY_REQUEST_TIMEOUT_SECONDS", 10),
		},
		Support: AppConfig{
			Name:                  getEnv("SUPPORT_APP_NAME", "curadesk-supportd"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("SUPPORT_HOST", "0.0.0.0"),
			Port:                  getEnv("SUPPORT_PORT", "3000"),
			RequestTimeoutSeconds: getEnvAsInt("SUPPORT_REQUEST_TIMEOUT_SECONDS", 30),
		},
		IdentityPostgres: PostgresConfig{
			DSN:            os.Getenv("IDENTITY_POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("IDENTITY_POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("IDENTITY_POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("IDENTITY_POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("IDENTITY_MIGRATIONS_DIR", "migrations/identity"),
			ConnMaxIdleSec: int32(getEnvAsInt("IDENTITY_POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("IDENTITY_POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		SupportPostgres: PostgresConfig{
			DSN:            os.Getenv("SUPPORT_POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("SUPPORT_POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("SUPPORT_POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("SUPPORT_POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("SUPPORT_MIGRATIONS_DIR", "migrations/support"),
			ConnMaxIdleSec: int32(getEnvAsInt("SUPPORT_POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("SUPPORT_POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		IdentityClient: IdentityClientConfig{
			BaseURL:            getEnv("IDENTITY_SERVICE_URL", "http://localhost:3001"),
			TimeoutMillis:      getEnvAsInt("IDENTITY_CLIENT_TIMEOUT_MILLIS", 2000),
			CacheCapacity:      getEnvAsInt("IDENTITY_CACHE_CAPACITY", 1024),
			PositiveTTLSeconds: getEnvAsInt("IDENTITY_CACHE_POSITIVE_TTL_SECONDS", 15),
			NegativeTTLSeconds: getEnvAsInt("IDENTITY_CACHE_NEGATIVE_TTL_SECONDS", 5),
		},
		Archive: ArchiveConfig{
			Root:                 getEnv("ARCHIVE_ROOT", "data/bundles"),
			MaxUncompressedBytes: int64(getEnvAsInt("ARCHIVE_MAX_UNCOMPRESSED_BYTES", 50<<20)),
			MaxEntries:           getEnvAsInt("ARCHIVE_MAX_ENTRIES", 256),
			MaxCompressionRatio:  getEnvAsFloat("ARCHIVE_MAX_COMPRESSION_RATIO", 100),
		},
		RateLimit: RateLimitConfig{
			ValidatePerMinute: getEnvAsInt("VALIDATE_RATE_LIMIT_PER_MINUTE", 60),
		},
	}

	if cfg.IdentityClient.PositiveTTLSeconds > 30 {
		return nil, fmt.Errorf("IDENTITY_CACHE_POSITIVE_TTL_SECONDS must be <= 30, got %d", cfg.IdentityClient.PositiveTTLSeconds)
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

// Timeout returns the identity call timeout duration.
func (c IdentityClientConfig) Timeout() time.Duration {
	if c.TimeoutMillis <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// PositiveTTL returns the cache TTL for valid verdicts.
func (c IdentityClientConfig) PositiveTTL() time.Duration {
	return time.Duration(c.PositiveTTLSeconds) * time.Second
}

// NegativeTTL returns the cache TTL for invalid verdicts.
func (c IdentityClientConfig) NegativeTTL() time.Duration {
	return time.Duration(c.NegativeTTLSeconds) * time.Second
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

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
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
