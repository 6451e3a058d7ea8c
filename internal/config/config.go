package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the client.
type Config struct {
	// Backend
	APIBaseURL     string
	RequestTimeout time.Duration

	// Sync
	SyncTransport      string // "poll" (default) or "ws"
	PollInterval       time.Duration
	UnreadPollInterval time.Duration
	MessagePageSize    int

	// Messaging rules
	DeleteWindow  time.Duration
	CheckoutDelay time.Duration

	// Notifications
	NotificationsEnabled bool
	NotificationTimeout  time.Duration
	SoundVolume          float64

	// Attachments
	ImageMaxDimension int

	// Send throttle
	SendRatePerSecond int
	SendBurst         int

	// Session
	SessionFile string
	Language    string

	// Logging
	LogLevel      string
	LogProduction bool
}

// Load configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.APIBaseURL, err = getRequiredEnv("API_BASE_URL")
	if err != nil {
		return nil, err
	}

	cfg.SyncTransport = getEnv("SYNC_TRANSPORT", "poll")
	if cfg.SyncTransport != "poll" && cfg.SyncTransport != "ws" {
		return nil, fmt.Errorf("invalid SYNC_TRANSPORT: %s (want poll or ws)", cfg.SyncTransport)
	}

	cfg.SessionFile = getEnv("SESSION_FILE", "")
	cfg.Language = getEnv("LANGUAGE", "en")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogProduction = getEnv("LOG_FORMAT", "console") == "json"

	requestTimeoutSeconds, err := strconv.ParseInt(getEnv("REQUEST_TIMEOUT_SECONDS", "15"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT_SECONDS: %w", err)
	}
	cfg.RequestTimeout = time.Duration(requestTimeoutSeconds) * time.Second

	pollIntervalSeconds, err := strconv.ParseInt(getEnv("POLL_INTERVAL_SECONDS", "4"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL_SECONDS: %w", err)
	}
	cfg.PollInterval = time.Duration(pollIntervalSeconds) * time.Second

	unreadPollSeconds, err := strconv.ParseInt(getEnv("UNREAD_POLL_INTERVAL_SECONDS", "30"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UNREAD_POLL_INTERVAL_SECONDS: %w", err)
	}
	cfg.UnreadPollInterval = time.Duration(unreadPollSeconds) * time.Second

	cfg.MessagePageSize, err = strconv.Atoi(getEnv("MESSAGE_PAGE_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_PAGE_SIZE: %w", err)
	}

	deleteWindowMinutes, err := strconv.ParseInt(getEnv("DELETE_WINDOW_MINUTES", "5"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DELETE_WINDOW_MINUTES: %w", err)
	}
	cfg.DeleteWindow = time.Duration(deleteWindowMinutes) * time.Minute

	checkoutDelayMs, err := strconv.ParseInt(getEnv("CHECKOUT_DELAY_MS", "1500"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHECKOUT_DELAY_MS: %w", err)
	}
	cfg.CheckoutDelay = time.Duration(checkoutDelayMs) * time.Millisecond

	cfg.NotificationsEnabled, err = strconv.ParseBool(getEnv("NOTIFICATIONS_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATIONS_ENABLED: %w", err)
	}

	notificationTimeoutSeconds, err := strconv.ParseInt(getEnv("NOTIFICATION_TIMEOUT_SECONDS", "5"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_TIMEOUT_SECONDS: %w", err)
	}
	cfg.NotificationTimeout = time.Duration(notificationTimeoutSeconds) * time.Second

	cfg.SoundVolume, err = strconv.ParseFloat(getEnv("NOTIFICATION_SOUND_VOLUME", "0.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_SOUND_VOLUME: %w", err)
	}
	if cfg.SoundVolume < 0 || cfg.SoundVolume > 1 {
		return nil, fmt.Errorf("NOTIFICATION_SOUND_VOLUME out of range [0,1]: %v", cfg.SoundVolume)
	}

	cfg.ImageMaxDimension, err = strconv.Atoi(getEnv("IMAGE_MAX_DIMENSION", "2048"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
	}

	cfg.SendRatePerSecond, err = strconv.Atoi(getEnv("SEND_RATE_PER_SECOND", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEND_RATE_PER_SECOND: %w", err)
	}
	cfg.SendBurst, err = strconv.Atoi(getEnv("SEND_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEND_BURST: %w", err)
	}

	return cfg, nil
}
