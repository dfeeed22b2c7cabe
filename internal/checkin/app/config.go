package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal containers
)

type Config struct {
	Port    int // Attendance API port (default: 6300)
	KeyPort int // Key distribution port (default: 3000)

	DatabaseDriver   string        // sqlite or postgres (default: sqlite)
	DatabaseFile     string        // SQLite database file (default: checkin.db)
	DatabaseURL      string        // Postgres DSN, required for the postgres driver
	DBConnectRetries int           // Attempts to reach the database on startup (default: 6)
	DBConnectDelay   time.Duration // Delay between attempts (default: 10s)

	KeySource           string        // random or totp (default: random)
	KeyRotationInterval time.Duration // default: 60s
	KeyValidity         time.Duration // default: 60s

	Location          *time.Location // Date buckets and report schedule (default: UTC)
	ReportDir         string         // Weekly report directory (default: reports)
	ReportS3          S3Config       // When Bucket is set, reports go to S3 instead of ReportDir
	TrustProxyHeaders bool           // Use X-Forwarded-For / X-Real-IP as the device address

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// LoadConfig reads the configuration from the environment. Only an unknown
// time zone is an error; other malformed values fall back to their defaults.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:    getEnvIntOrDefault("PORT", 6300),
		KeyPort: getEnvIntOrDefault("KEY_PORT", 3000),

		DatabaseDriver:   strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabaseFile:     getEnvOrDefault("DATABASE_FILE", "checkin.db"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBConnectRetries: getEnvIntOrDefault("DB_CONNECT_RETRIES", 6),
		DBConnectDelay:   getEnvDurationOrDefault("DB_CONNECT_DELAY", 10*time.Second),

		KeySource:           strings.ToLower(getEnvOrDefault("KEY_SOURCE", "random")),
		KeyRotationInterval: getEnvDurationOrDefault("KEY_ROTATION_INTERVAL", 60*time.Second),
		KeyValidity:         getEnvDurationOrDefault("KEY_VALIDITY", 60*time.Second),

		ReportDir: getEnvOrDefault("REPORT_DIR", "reports"),
		ReportS3: S3Config{
			Bucket:    os.Getenv("REPORT_S3_BUCKET"),
			Prefix:    os.Getenv("REPORT_S3_PREFIX"),
			Region:    os.Getenv("REPORT_S3_REGION"),
			Endpoint:  os.Getenv("REPORT_S3_ENDPOINT"),
			AccessKey: os.Getenv("REPORT_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("REPORT_S3_SECRET_KEY"),
		},
		TrustProxyHeaders: getEnvBoolOrDefault("TRUST_PROXY_HEADERS", false),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	loc, err := time.LoadLocation(getEnvOrDefault("TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1m", "30s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
