package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/storage"
)

// Config holds all daemon configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration (postgres, redis, caching)
	Storage storage.Config

	// Manifest configuration
	Manifest ManifestConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ManifestConfig locates the statistics manifest.
type ManifestConfig struct {
	// Path to the YAML manifest defining the model and its statistics.
	Path string
	// Watch reloads the manifest on file changes.
	Watch bool
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Manifest:      loadManifestConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("TALLY_HOST", "0.0.0.0"),
		Port:            getEnv("TALLY_PORT", "8080"),
		ReadTimeout:     getEnvDuration("TALLY_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("TALLY_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("TALLY_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("TALLY_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	cfg.PostgresURL = getEnv("TALLY_POSTGRES_URL", "")
	if maxConns := getEnvInt("TALLY_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("TALLY_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("TALLY_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	cfg.RedisURL = getEnv("TALLY_REDIS_URL", "")
	cfg.RedisPassword = getEnv("TALLY_REDIS_PASSWORD", "")
	if redisDB := getEnvInt("TALLY_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if poolSize := getEnvInt("TALLY_REDIS_POOL_SIZE", 0); poolSize > 0 {
		cfg.RedisPoolSize = poolSize
	}

	cfg.CacheEnabled = getEnvBool("TALLY_CACHE_ENABLED", cfg.CacheEnabled)
	if ttl := getEnvDuration("TALLY_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL = ttl
	}
	if size := getEnvInt("TALLY_LOCAL_CACHE_SIZE", 0); size > 0 {
		cfg.LocalCacheSize = size
	}

	return cfg
}

func loadManifestConfig() ManifestConfig {
	return ManifestConfig{
		Path:  getEnv("TALLY_MANIFEST_PATH", ""),
		Watch: getEnvBool("TALLY_MANIFEST_WATCH", false),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(strings.ToLower(getEnv("TALLY_LOG_LEVEL", "info"))),
		MetricsEnabled:     getEnvBool("TALLY_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("TALLY_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("TALLY_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("TALLY_OTEL_SERVICE_NAME", "tally"),
		OTelServiceVersion: getEnv("TALLY_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("TALLY_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Manifest.Path == "" {
		return fmt.Errorf("manifest path is required")
	}

	if c.Storage.CacheEnabled && c.Storage.LocalCacheSize <= 0 {
		return fmt.Errorf("local cache size must be positive when caching is enabled")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
