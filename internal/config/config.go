package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrEmptyEnvironmentVariable = errors.New("empty environment variable")

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Services ServicesConfig
	Cache    CacheConfig
	Webhook  WebhookConfig
	Server   ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Username string
	Password string
	Name     string
}

// ServicesConfig holds external service API keys and configuration
type ServicesConfig struct {
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioFromNumber   string
	ResendAPIKey       string
	DefaultEmailSender string
}

// CacheConfig holds condition-catalog cache tuning
type CacheConfig struct {
	CatalogTTL        time.Duration
	CatalogMaxEntries int
}

// WebhookConfig holds outbound webhook settings
type WebhookConfig struct {
	Timeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
}

// Load reads and validates all required environment variables
func Load() (*Config, error) {
	// Load env.local in non-production environments
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load("env.local"); err != nil {
			return nil, fmt.Errorf("failed to load env.local: %w", err)
		}
	}

	cfg := &Config{}

	// Database configuration
	var err error
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Username, err = requireEnv("DB_USERNAME"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.Name, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Services configuration
	if cfg.Services.TwilioAccountSID, err = requireEnv("TWILIO_ACCOUNT_SID"); err != nil {
		return nil, err
	}
	if cfg.Services.TwilioAuthToken, err = requireEnv("TWILIO_AUTH_TOKEN"); err != nil {
		return nil, err
	}
	if cfg.Services.TwilioFromNumber, err = requireEnv("TWILIO_FROM_NUMBER"); err != nil {
		return nil, err
	}
	if cfg.Services.ResendAPIKey, err = requireEnv("RESEND_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.Services.DefaultEmailSender, err = requireEnv("DEFAULT_EMAIL_SENDER_ADDRESS"); err != nil {
		return nil, err
	}

	// Cache configuration
	catalogTTL := getEnvWithDefault("CATALOG_CACHE_TTL_SECONDS", "60")
	ttlSeconds, err := strconv.Atoi(catalogTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CATALOG_CACHE_TTL_SECONDS: %w", err)
	}
	cfg.Cache.CatalogTTL = time.Duration(ttlSeconds) * time.Second

	maxEntries := getEnvWithDefault("CATALOG_CACHE_MAX_ENTRIES", "1000")
	cfg.Cache.CatalogMaxEntries, err = strconv.Atoi(maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CATALOG_CACHE_MAX_ENTRIES: %w", err)
	}

	// Webhook configuration
	webhookTimeout := getEnvWithDefault("WEBHOOK_TIMEOUT_SECONDS", "10")
	timeoutSeconds, err := strconv.Atoi(webhookTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse WEBHOOK_TIMEOUT_SECONDS: %w", err)
	}
	cfg.Webhook.Timeout = time.Duration(timeoutSeconds) * time.Second

	// Server configuration
	serverPort, err := requireEnv("SERVER_PORT")
	if err != nil {
		return nil, err
	}
	cfg.Server.Port, err = strconv.Atoi(serverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SERVER_PORT: %w", err)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s",
		c.Username, c.Password, c.Host, c.Name)
}

// requireEnv retrieves an environment variable or returns an error if empty
func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set: %w", key, ErrEmptyEnvironmentVariable)
	}
	return value, nil
}

// getEnvWithDefault retrieves an environment variable or returns a default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
