package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DBModeSecure = "secure"
	DBModePlain  = "plain"
)

// Config holds application configuration read from GIDDYCYCLES_* variables.
type Config struct {
	DBMode string
	DBPath string

	APIBaseURL string
	LogLevel   string
	LogFile    string

	MaxCycles int

	SyncStaleTTL     time.Duration
	SyncPollInterval time.Duration
	SyncWorkers      int

	ReminderSchedule string
	ReminderLeadDays int
	ReminderTo       string
	SenderEmail      string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	defaultPath, err := defaultDBPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBMode:           strings.ToLower(getEnv("GIDDYCYCLES_DB_MODE", DBModeSecure)),
		DBPath:           getEnv("GIDDYCYCLES_DB_PATH", defaultPath),
		APIBaseURL:       getEnv("GIDDYCYCLES_API_URL", "https://api.giddycycles.app/v1"),
		LogLevel:         getEnv("GIDDYCYCLES_LOG_LEVEL", "INFO"),
		LogFile:          getEnv("GIDDYCYCLES_LOG_FILE", ""),
		ReminderSchedule: getEnv("GIDDYCYCLES_REMINDER_SCHEDULE", "0 8 * * *"),
		ReminderTo:       getEnv("GIDDYCYCLES_REMINDER_TO", ""),
		SenderEmail:      getEnv("GIDDYCYCLES_SENDER_EMAIL", "reminders@giddycycles.local"),
		SMTPHost:         getEnv("GIDDYCYCLES_SMTP_HOST", "localhost"),
		SMTPPort:         getEnv("GIDDYCYCLES_SMTP_PORT", "587"),
		SMTPUsername:     getEnv("GIDDYCYCLES_SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("GIDDYCYCLES_SMTP_PASSWORD", ""),
	}

	if cfg.MaxCycles, err = getEnvInt("GIDDYCYCLES_MAX_CYCLES", 240); err != nil {
		return nil, err
	}
	if cfg.ReminderLeadDays, err = getEnvInt("GIDDYCYCLES_REMINDER_LEAD_DAYS", 3); err != nil {
		return nil, err
	}
	if cfg.SyncWorkers, err = getEnvInt("GIDDYCYCLES_SYNC_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.SyncStaleTTL, err = getEnvDuration("GIDDYCYCLES_SYNC_STALE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SyncPollInterval, err = getEnvDuration("GIDDYCYCLES_SYNC_POLL_INTERVAL", 2*time.Minute); err != nil {
		return nil, err
	}

	if cfg.DBMode != DBModeSecure && cfg.DBMode != DBModePlain {
		return nil, fmt.Errorf("GIDDYCYCLES_DB_MODE must be %q or %q, got %q", DBModeSecure, DBModePlain, cfg.DBMode)
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, fmt.Errorf("GIDDYCYCLES_DB_PATH is required")
	}
	if cfg.MaxCycles <= 0 {
		return nil, fmt.Errorf("GIDDYCYCLES_MAX_CYCLES must be positive")
	}
	if cfg.ReminderLeadDays < 0 {
		return nil, fmt.Errorf("GIDDYCYCLES_REMINDER_LEAD_DAYS cannot be negative")
	}

	return cfg, nil
}

// SMTPAddr joins host and port for net/smtp.
func (c *Config) SMTPAddr() string {
	return fmt.Sprintf("%s:%s", c.SMTPHost, c.SMTPPort)
}

func defaultDBPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(configDir, "giddycycles", "giddycycles.db"), nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
