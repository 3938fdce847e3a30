// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetCampaignCron() string
}

// MessagingConfig provides settings for outbound customer messaging.
type MessagingConfig interface {
	GetDefaultCountryCode() string
	GetDefaultTimezone() string
	GetSendRatePerSecond() float64
}

// EmailConfig provides SMTP settings for owner alert emails.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// Config holds all application configuration.
type Config struct {
	Env                string
	DatabaseURL        string
	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	AsynqConcurrency   int
	CampaignCron       string
	DefaultCountryCode string
	DefaultTimezone    string
	SendRatePerSecond  float64
	EmailEnabled       bool
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	EmailFromName      string
	EmailFromAddress   string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) GetCampaignCron() string   { return c.CampaignCron }

// MessagingConfig implementation
func (c *Config) GetDefaultCountryCode() string { return c.DefaultCountryCode }
func (c *Config) GetDefaultTimezone() string    { return c.DefaultTimezone }
func (c *Config) GetSendRatePerSecond() float64 { return c.SendRatePerSecond }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// Load reads configuration from environment variables.
// A .env file is loaded first if present (development convenience).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:   getBoolEnv("REDIS_TLS_INSECURE", false),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "engagement"),
		AsynqConcurrency:   getIntEnv("ASYNQ_CONCURRENCY", 10),
		CampaignCron:       getEnv("CAMPAIGN_CRON", "0 9 * * *"),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "57"),
		DefaultTimezone:    getEnv("DEFAULT_TIMEZONE", ""),
		SendRatePerSecond:  getFloatEnv("SEND_RATE_PER_SECOND", 5),
		EmailEnabled:       getBoolEnv("EMAIL_ENABLED", false),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           getIntEnv("SMTP_PORT", 587),
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "CitaPlan"),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", "no-reply@citaplan.app"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.EmailEnabled && cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloatEnv(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// GetDurationEnv reads a duration environment variable with a fallback.
// Exposed for cmd-level tuning knobs that do not warrant a Config field.
func GetDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
