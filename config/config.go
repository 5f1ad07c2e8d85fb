package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"betpool/database"
)

// RemovalPolicy decides what happens to outstanding bets when an open event is removed
type RemovalPolicy string

const (
	// RemovalPolicyForfeit keeps the stakes, no wallet is credited
	RemovalPolicyForfeit RemovalPolicy = "forfeit"
	// RemovalPolicyRefund credits every stake back to the bettor
	RemovalPolicyRefund RemovalPolicy = "refund"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)
	NATSEnabled bool

	// Discord configuration, used only to deliver rejection notices
	DiscordToken    string
	ReviewChannelID string

	// Metrics and health endpoint
	MetricsAddr string

	// Market rules
	MinQuotaPrice int64
	RemovalPolicy RemovalPolicy
	MinimumAge    int // years
	BcryptCost    int

	// Bounded store access
	StoreTimeout      time.Duration
	SettlementTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),
		NATSEnabled: os.Getenv("NATS_ENABLED") == "true",

		// Discord
		DiscordToken:    os.Getenv("DISCORD_TOKEN"),
		ReviewChannelID: os.Getenv("REVIEW_CHANNEL_ID"),

		MetricsAddr: getEnvWithDefault("METRICS_ADDR", ":9090"),

		// Market rules with defaults
		MinQuotaPrice: 1,
		RemovalPolicy: RemovalPolicy(getEnvWithDefault("REMOVAL_POLICY", string(RemovalPolicyForfeit))),
		MinimumAge:    18,
		BcryptCost:    12,

		StoreTimeout:      5 * time.Second,
		SettlementTimeout: 30 * time.Second,

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if price := os.Getenv("MIN_QUOTA_PRICE"); price != "" {
		parsed, err := strconv.ParseInt(price, 10, 64)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("MIN_QUOTA_PRICE must be a positive integer, got %q", price)
		}
		config.MinQuotaPrice = parsed
	}
	if age := os.Getenv("MINIMUM_AGE"); age != "" {
		if parsed, err := strconv.Atoi(age); err == nil {
			config.MinimumAge = parsed
		}
	}
	if cost := os.Getenv("BCRYPT_COST"); cost != "" {
		if parsed, err := strconv.Atoi(cost); err == nil {
			config.BcryptCost = parsed
		}
	}
	if timeout := os.Getenv("STORE_TIMEOUT"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
		}
		config.StoreTimeout = parsed
	}
	if timeout := os.Getenv("SETTLEMENT_TIMEOUT"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid SETTLEMENT_TIMEOUT: %w", err)
		}
		config.SettlementTimeout = parsed
	}

	switch config.RemovalPolicy {
	case RemovalPolicyForfeit, RemovalPolicyRefund:
	default:
		return nil, fmt.Errorf("REMOVAL_POLICY must be %q or %q, got %q", RemovalPolicyForfeit, RemovalPolicyRefund, config.RemovalPolicy)
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		if config.ReviewChannelID != "" && config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required when REVIEW_CHANNEL_ID is set")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:       "test",
		MinQuotaPrice:     1,
		RemovalPolicy:     RemovalPolicyForfeit,
		MinimumAge:        18,
		BcryptCost:        4, // bcrypt.MinCost keeps tests fast
		StoreTimeout:      5 * time.Second,
		SettlementTimeout: 30 * time.Second,
		LogLevel:          "debug",
		LogFormat:         "text",
	}
}
