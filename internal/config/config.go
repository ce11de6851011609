package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port        string
	Debug       bool
	MaxUploadMB int

	// Dataset configuration
	SampleSize            int
	LoadSampleOnStart     bool
	InferMissingSentiment bool

	// Google Sheets configuration
	GoogleSheetID        string
	GoogleSheetGID       string
	SheetRefreshSchedule string
	SheetCacheTTL        time.Duration

	// Valkey cache configuration
	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool

	// Analytics configuration
	ComparisonDays       int
	DefaultEngagementMax int

	// Schedule configuration
	ReportSchedule string // "", "daily" or "weekly"
	ReportDir      string

	// Azure Storage configuration
	StorageAccount   string
	StorageContainer string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// AI assistant configuration
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITemperature float64
	OpenAIMaxTokens   int
	AISettingsFile    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Debug:       getBoolEnv("DEBUG", false),
		MaxUploadMB: getIntEnv("MAX_UPLOAD_MB", 50),

		SampleSize:            getIntEnv("SAMPLE_SIZE", 200),
		LoadSampleOnStart:     getBoolEnv("LOAD_SAMPLE_ON_START", true),
		InferMissingSentiment: getBoolEnv("INFER_MISSING_SENTIMENT", false),

		GoogleSheetID:        getEnv("GOOGLE_SHEET_ID", ""),
		GoogleSheetGID:       getEnv("GOOGLE_SHEET_GID", "0"),
		SheetRefreshSchedule: getEnv("SHEET_REFRESH_SCHEDULE", ""),
		SheetCacheTTL:        getDurationEnv("SHEET_CACHE_TTL", 5*time.Minute),

		ValkeyAddress:  getEnv("VALKEY_ADDRESS", ""),
		ValkeyPassword: getEnv("VALKEY_PASSWORD", ""),
		ValkeyTLS:      getBoolEnv("VALKEY_TLS", false),

		ComparisonDays:       getIntEnv("COMPARISON_DAYS", 30),
		DefaultEngagementMax: getIntEnv("DEFAULT_ENGAGEMENT_MAX", 10000),

		ReportSchedule: strings.ToLower(getEnv("REPORT_SCHEDULE", "")),
		ReportDir:      getEnv("REPORT_DIR", "reports"),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "dashboard-reports"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature: getFloatEnv("OPENAI_TEMPERATURE", 0.7),
		OpenAIMaxTokens:   getIntEnv("OPENAI_MAX_TOKENS", 1000),
		AISettingsFile:    getEnv("AI_SETTINGS_FILE", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SheetEnabled reports whether a Google Sheet has been configured
func (c *Config) SheetEnabled() bool {
	return c.GoogleSheetID != ""
}

// NotificationsEnabled reports whether any digest channel has been configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

func (c *Config) validate() error {
	if c.ReportSchedule != "" && c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be empty, 'daily' or 'weekly'")
	}

	if c.ReportSchedule != "" && !c.NotificationsEnabled() {
		return fmt.Errorf("at least one notification method must be configured when REPORT_SCHEDULE is set (TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL)")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.SheetRefreshSchedule != "" && !c.SheetEnabled() {
		return fmt.Errorf("GOOGLE_SHEET_ID is required when SHEET_REFRESH_SCHEDULE is set")
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}

	if c.SampleSize < 0 {
		return fmt.Errorf("SAMPLE_SIZE must not be negative, got %d", c.SampleSize)
	}

	if c.OpenAITemperature < 0 || c.OpenAITemperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2, got %v", c.OpenAITemperature)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
