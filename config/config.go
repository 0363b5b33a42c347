package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"questhelper/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// DefaultPrefix is used for guilds without a stored prefix
const DefaultPrefix = "!"

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Command routing
	DefaultPrefix   string
	PrefixCacheSize int

	// Roles allowed to create FAQ entries
	PromotedRoleIDs []int64

	// Join-time auto-role assignment
	AutoRoleQueueSize     int
	AutoRoleRatePerSecond float64

	// NATS configuration (empty disables event publication)
	NATSServers string

	// gRPC health server address (empty disables it)
	HealthAddr string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	LogLevel string

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

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
				instance.DiscordToken = "test-token"
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

// NATSEnabled reports whether domain events should be published to NATS
func (c *Config) NATSEnabled() bool {
	return strings.TrimSpace(c.NATSServers) != ""
}

// load loads configuration from the environment, reading a .env file first if present
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	config := &Config{
		DiscordToken: os.Getenv("DISCORD_TOKEN"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		DefaultPrefix:   getEnvWithDefault("DEFAULT_PREFIX", DefaultPrefix),
		PrefixCacheSize: getEnvInt("PREFIX_CACHE_SIZE", 1024),

		AutoRoleQueueSize:     getEnvInt("AUTOROLE_QUEUE_SIZE", 256),
		AutoRoleRatePerSecond: getEnvFloat("AUTOROLE_RATE_PER_SECOND", 5),

		NATSServers: os.Getenv("NATS_SERVERS"),
		HealthAddr:  getEnvWithDefault("HEALTH_ADDR", ":9090"),

		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "questhelper"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: getEnvInt("OTEL_EXPORT_INTERVAL_MS", 30000),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	config.PromotedRoleIDs = parseIDList(os.Getenv("PROMOTED_ROLE_IDS"))

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		if len(config.DefaultPrefix) > 8 {
			return nil, fmt.Errorf("DEFAULT_PREFIX must be at most 8 characters")
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
		log.WithField("key", key).Warn("Ignoring invalid integer environment value")
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
			return parsed
		}
		log.WithField("key", key).Warn("Ignoring invalid float environment value")
	}
	return defaultValue
}

// parseIDList parses a comma-separated list of Discord snowflakes, skipping invalid entries
func parseIDList(raw string) []int64 {
	var ids []int64
	for _, idStr := range strings.Split(raw, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:           "test",
		DefaultPrefix:         DefaultPrefix,
		PrefixCacheSize:       16,
		AutoRoleQueueSize:     8,
		AutoRoleRatePerSecond: 1000,
		PromotedRoleIDs:       []int64{999999},
		OTelExporterType:      "none",
		LogLevel:              "debug",
	}
}
