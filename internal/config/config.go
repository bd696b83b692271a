package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	EventsURL         string
	RefreshURL        string
	ICSFeedURL        string
	ICSFeedCalendarID string
	ICSFeedInterval   time.Duration
	BindAddress       string
	RequireAPIToken   bool
	APIToken          string
	SessionPath       string
	SessionPassphrase string
	RequestTimeout    time.Duration
	HourHeight        float64
	LogLevel          string
}

func Load() (Config, error) {
	cfg := Config{
		EventsURL:         strings.TrimSpace(os.Getenv("LEXCAL_EVENTS_URL")),
		RefreshURL:        strings.TrimSpace(os.Getenv("LEXCAL_REFRESH_URL")),
		ICSFeedURL:        strings.TrimSpace(os.Getenv("LEXCAL_ICS_FEED_URL")),
		ICSFeedCalendarID: getenvDefault("LEXCAL_ICS_FEED_ID", "external-feed"),
		ICSFeedInterval:   getenvDuration("LEXCAL_ICS_FEED_INTERVAL", time.Hour),
		BindAddress:       getenvDefault("LEXCAL_BIND_ADDRESS", "127.0.0.1:9843"),
		RequireAPIToken:   getenvBool("LEXCAL_REQUIRE_TOKEN", true),
		APIToken:          strings.TrimSpace(os.Getenv("LEXCAL_API_TOKEN")),
		SessionPath:       strings.TrimSpace(os.Getenv("LEXCAL_SESSION_PATH")),
		SessionPassphrase: os.Getenv("LEXCAL_SESSION_PASSPHRASE"),
		RequestTimeout:    getenvDuration("LEXCAL_REQUEST_TIMEOUT", 10*time.Second),
		HourHeight:        getenvFloat("LEXCAL_HOUR_HEIGHT", 48),
		LogLevel:          getenvDefault("LEXCAL_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.EventsURL == "" {
		return errors.New("LEXCAL_EVENTS_URL is required")
	}
	if c.RefreshURL == "" {
		return errors.New("LEXCAL_REFRESH_URL is required")
	}
	if c.BindAddress == "" {
		return errors.New("bind address must be configured")
	}
	if c.RequireAPIToken && c.APIToken == "" {
		return errors.New("LEXCAL_API_TOKEN is required when token auth is enabled")
	}
	if c.SessionPath != "" && c.SessionPassphrase == "" {
		return errors.New("LEXCAL_SESSION_PASSPHRASE is required when a session path is set")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be > 0")
	}
	if c.HourHeight <= 0 {
		return errors.New("hour height must be > 0")
	}
	if c.ICSFeedURL != "" && c.ICSFeedInterval <= 0 {
		return errors.New("ics feed interval must be > 0")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getenvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
