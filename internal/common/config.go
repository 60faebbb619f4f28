package common

import (
	"os"
	"strconv"
	"time"

	"github.com/virajbhatt/cardintel/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Vision   VisionConfig
	Gemini   GeminiConfig
	Quota    QuotaConfig
	Uploads  UploadConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// VisionConfig holds text-extraction provider configuration
type VisionConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GeminiConfig holds structured-parsing provider configuration
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// QuotaConfig holds the dual-window rate limit settings
type QuotaConfig struct {
	MonthlyCap     int
	MonthlyBlockAt int
	HourlyCap      int
	HourlyWindow   time.Duration
}

// UploadConfig holds transient image storage configuration
type UploadConfig struct {
	TempDir string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Vision: VisionConfig{
			APIKey:  getEnv("VISION_API_KEY", ""),
			BaseURL: getEnv("VISION_BASE_URL", ""),
			Timeout: getEnvAsDuration("VISION_TIMEOUT", 30*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			BaseURL:     getEnv("GEMINI_BASE_URL", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", 45*time.Second),
		},
		Quota: QuotaConfig{
			MonthlyCap:     getEnvAsInt("QUOTA_MONTHLY_CAP", constants.MonthlyUnitCap),
			MonthlyBlockAt: getEnvAsInt("QUOTA_MONTHLY_BLOCK_AT", constants.MonthlyBlockThreshold),
			HourlyCap:      getEnvAsInt("QUOTA_HOURLY_CAP", constants.HourlyAttemptCap),
			HourlyWindow:   getEnvAsDuration("QUOTA_HOURLY_WINDOW", constants.HourlyWindow),
		},
		Uploads: UploadConfig{
			TempDir: getEnv("UPLOAD_TEMP_DIR", os.TempDir()),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Vision.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "VISION_API_KEY is required", ErrInvalidInput)
	}
	if c.Gemini.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Quota.MonthlyBlockAt > c.Quota.MonthlyCap {
		return NewAppError("CONFIG_ERROR", "QUOTA_MONTHLY_BLOCK_AT must not exceed QUOTA_MONTHLY_CAP", ErrInvalidInput)
	}
	return nil
}
