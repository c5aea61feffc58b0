// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aristath/checkup/internal/utils"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the database and backup staging (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	OCR     OCRConfig
	Coupons []string // Accepted coupon codes; empty disables redemption

	PreviewRetentionDays int // Unpaid checkups idle this long are purged; 0 keeps them
	Backup               BackupConfig
}

// OCRConfig holds the screenshot extraction service settings
type OCRConfig struct {
	BaseURL       string
	APIKey        string
	RatePerMinute int
}

// Enabled reports whether image upload is available
func (c OCRConfig) Enabled() bool {
	return c.BaseURL != ""
}

// BackupConfig holds the S3-compatible backup bucket settings
type BackupConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string // Six-field cron expression
	RetentionDays   int
}

// Enabled reports whether backups are configured
func (c BackupConfig) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CHECKUP_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		OCR: OCRConfig{
			BaseURL:       getEnv("OCR_SERVICE_URL", ""),
			APIKey:        getEnv("OCR_API_KEY", ""),
			RatePerMinute: getEnvAsInt("OCR_RATE_PER_MINUTE", 30),
		},
		Coupons:              getEnvAsList("CHECKUP_COUPONS"),
		PreviewRetentionDays: getEnvAsInt("PREVIEW_RETENTION_DAYS", 30),
		Backup: BackupConfig{
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
			Schedule:        getEnv("BACKUP_S3_SCHEDULE", "0 0 3 * * *"),
			RetentionDays:   getEnvAsInt("BACKUP_S3_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabasePath is where the checkups database lives
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "checkups.db")
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.OCR.RatePerMinute < 0 {
		return fmt.Errorf("OCR_RATE_PER_MINUTE must not be negative")
	}
	if c.PreviewRetentionDays < 0 {
		return fmt.Errorf("PREVIEW_RETENTION_DAYS must not be negative")
	}
	if c.Backup.Enabled() && (c.Backup.AccessKeyID == "") != (c.Backup.SecretAccessKey == "") {
		return fmt.Errorf("BACKUP_S3_ACCESS_KEY_ID and BACKUP_S3_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank entries
func getEnvAsList(key string) []string {
	return utils.ParseCSV(os.Getenv(key))
}
