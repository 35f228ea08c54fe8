package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Logger        LoggerConfig
	Database      DatabaseConfig
	Gateway       GatewayConfig
	Webhook       WebhookConfig
	Poller        PollerConfig
	Rewards       RewardsConfig
	Collaborators CollaboratorsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// GatewayConfig holds payment provider API configuration
type GatewayConfig struct {
	BaseURL        string
	APIKey         string
	ProductKey     string
	RequestTimeout time.Duration
	MinAmount      decimal.Decimal
}

// WebhookConfig holds webhook authentication configuration.
// An empty Secret disables signature verification.
type WebhookConfig struct {
	Secret string
}

// PollerConfig bounds the client-driven status polling loop
type PollerConfig struct {
	Interval    time.Duration
	MaxAttempts int
	MaxWait     time.Duration
}

// RewardsConfig controls how an accepted charge translates into rewards
type RewardsConfig struct {
	// CreditsPerUnit is multiplied by the charge amount to obtain the
	// payer's credit delta
	CreditsPerUnit       decimal.Decimal
	ExperiencePoints     int64
	ReferrerBonusCredits int64
}

// CollaboratorsConfig points at the platform services the reward
// dispatcher calls out to
type CollaboratorsConfig struct {
	UserStoreURL    string
	NotificationURL string
	InternalAPIKey  string
	RequestTimeout  time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string // debug, info, warn, error
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "payments"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Gateway: GatewayConfig{
			BaseURL:        getEnv("GATEWAY_BASE_URL", "https://api.noupia.com"),
			APIKey:         getEnv("GATEWAY_API_KEY", ""),
			ProductKey:     getEnv("GATEWAY_PRODUCT_KEY", ""),
			RequestTimeout: getEnvAsDuration("GATEWAY_REQUEST_TIMEOUT", "10s"),
			MinAmount:      getEnvAsDecimal("GATEWAY_MIN_AMOUNT", "100"),
		},
		Webhook: WebhookConfig{
			Secret: getEnv("WEBHOOK_SECRET", ""),
		},
		Poller: PollerConfig{
			Interval:    getEnvAsDuration("POLL_INTERVAL", "5s"),
			MaxAttempts: getEnvAsInt("POLL_MAX_ATTEMPTS", 60),
			MaxWait:     getEnvAsDuration("POLL_MAX_WAIT", "5m"),
		},
		Rewards: RewardsConfig{
			CreditsPerUnit:       getEnvAsDecimal("REWARD_CREDITS_PER_UNIT", "1"),
			ExperiencePoints:     int64(getEnvAsInt("REWARD_EXPERIENCE_POINTS", 50)),
			ReferrerBonusCredits: int64(getEnvAsInt("REWARD_REFERRER_BONUS", 1000)),
		},
		Collaborators: CollaboratorsConfig{
			UserStoreURL:    getEnv("USER_STORE_URL", "http://localhost:3000"),
			NotificationURL: getEnv("NOTIFICATION_URL", "http://localhost:3000"),
			RequestTimeout:  getEnvAsDuration("COLLABORATOR_REQUEST_TIMEOUT", "10s"),
			InternalAPIKey:  getEnv("INTERNAL_API_KEY", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway base URL cannot be empty")
	}
	if c.Gateway.MinAmount.IsNegative() {
		return fmt.Errorf("gateway minimum amount cannot be negative")
	}

	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Poller.Interval)
	}
	if c.Poller.MaxAttempts <= 0 {
		return fmt.Errorf("poll max attempts must be positive, got %d", c.Poller.MaxAttempts)
	}
	if c.Poller.MaxWait < c.Poller.Interval {
		return fmt.Errorf("poll max wait (%s) must be >= poll interval (%s)", c.Poller.MaxWait, c.Poller.Interval)
	}

	if c.Rewards.CreditsPerUnit.IsNegative() {
		return fmt.Errorf("credits per unit cannot be negative")
	}
	if c.Rewards.ReferrerBonusCredits < 0 {
		return fmt.Errorf("referrer bonus cannot be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fall back to the default if the provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}

func getEnvAsDecimal(key, defaultValue string) decimal.Decimal {
	valueStr := getEnv(key, defaultValue)
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		value, err = decimal.NewFromString(defaultValue)
		if err != nil {
			return decimal.Zero
		}
	}
	return value
}
