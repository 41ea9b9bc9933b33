package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DatabaseURL       string
	JWTSecret         string
	DataEncryptionKey string
	Environment       string
	LogLevel          string
	LogFormat         string
	Timezone          string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	QRTokenTTL        time.Duration
	LocationMaxAge    time.Duration
	LateGrace         time.Duration
	DayLockTTL        time.Duration
	QRRotateInterval  time.Duration
	RateLimitPerMin   int
	SeedWorkplace     string
	SlipStorageDir    string
	RunMigrations     bool
	MaxBodyBytes      int64
	MetricsEnabled    bool
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:              getEnv("APP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		DataEncryptionKey: getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:       getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		Timezone:          getEnv("APP_TIMEZONE", "Asia/Seoul"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		QRTokenTTL:        getEnvDuration("QR_TOKEN_TTL", 5*time.Minute),
		LocationMaxAge:    getEnvDuration("LOCATION_MAX_AGE", 2*time.Minute),
		LateGrace:         getEnvDuration("LATE_GRACE", 10*time.Minute),
		DayLockTTL:        getEnvDuration("DAY_LOCK_TTL", 10*time.Second),
		QRRotateInterval:  getEnvDuration("QR_ROTATE_INTERVAL", 0),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		SeedWorkplace:     getEnv("SEED_WORKPLACE_NAME", ""),
		SlipStorageDir:    getEnv("SLIP_STORAGE_DIR", "storage/slips"),
		RunMigrations:     getEnvBool("RUN_MIGRATIONS", true),
		MaxBodyBytes:      int64(getEnvInt("MAX_BODY_BYTES", 4<<20)),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Location resolves the configured business timezone, falling back to UTC+9.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.QRTokenTTL <= 0 {
		return fmt.Errorf("QR_TOKEN_TTL must be positive")
	}
	if c.LocationMaxAge <= 0 {
		return fmt.Errorf("LOCATION_MAX_AGE must be positive")
	}
	if c.RateLimitPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.LateGrace < 0 {
		return fmt.Errorf("LATE_GRACE must not be negative")
	}
	return nil
}
