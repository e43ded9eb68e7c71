package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/curation-works/metacat/pkg/observability"
	"github.com/curation-works/metacat/pkg/store"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration
	Storage store.Config `yaml:"storage"`

	// Catalog engine configuration
	Catalog CatalogConfig `yaml:"catalog"`

	// Notification configuration
	Notify NotifyConfig `yaml:"notify"`

	// Relinking configuration
	Relink RelinkConfig `yaml:"relink"`

	// Group admin sync configuration
	GroupSync GroupSyncConfig `yaml:"group_sync"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// CatalogConfig holds lifecycle engine settings.
type CatalogConfig struct {
	// OpenAccessNoGroups opens entities with an empty group set to every
	// authenticated user instead of admins only.
	OpenAccessNoGroups bool `yaml:"open_access_no_groups"`

	// SideEffectTimeout bounds detached side effects (review
	// notifications, relinking).
	SideEffectTimeout time.Duration `yaml:"side_effect_timeout"`
}

// NotifyConfig holds review notification settings.
type NotifyConfig struct {
	// EmailServiceURL is the base URL of the email sender service. Empty
	// disables notifications.
	EmailServiceURL string        `yaml:"email_service_url"`
	RecipientGroup  string        `yaml:"recipient_group"`
	Timeout         time.Duration `yaml:"timeout"`
}

// RelinkConfig holds nested-reference relinking settings.
type RelinkConfig struct {
	// ConverterServiceURL is the base URL of the converter service that
	// owns plugin relations. Empty disables relinking.
	ConverterServiceURL string        `yaml:"converter_service_url"`
	Workers             int           `yaml:"workers"`
	Timeout             time.Duration `yaml:"timeout"`
}

// GroupSyncConfig holds the admin membership backfill schedule.
type GroupSyncConfig struct {
	// Schedule is a cron expression; empty disables the sync job.
	Schedule string `yaml:"schedule"`
	Workers  int    `yaml:"workers"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel `yaml:"-"`
	LogLevelName   string                 `yaml:"log_level"`
	MetricsEnabled bool                   `yaml:"metrics_enabled"`
}

// LoadConfig loads configuration from the optional YAML file named by
// METACAT_CONFIG_FILE, with environment variables taking precedence.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("METACAT_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Storage: store.DefaultConfig(),
		Catalog: CatalogConfig{
			SideEffectTimeout: 30 * time.Second,
		},
		Notify: NotifyConfig{
			RecipientGroup: "Metadata Curators",
			Timeout:        10 * time.Second,
		},
		Relink: RelinkConfig{
			Workers: 4,
			Timeout: 30 * time.Second,
		},
		GroupSync: GroupSyncConfig{
			Schedule: "0 * * * *",
			Workers:  4,
		},
		Observability: ObservabilityConfig{
			LogLevelName:   "info",
			MetricsEnabled: true,
		},
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	// Server
	c.Server.Host = getEnv("METACAT_HOST", c.Server.Host)
	c.Server.Port = getEnv("METACAT_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("METACAT_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("METACAT_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("METACAT_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("METACAT_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.HealthPort = getEnv("METACAT_HEALTH_PORT", c.Server.HealthPort)

	// Storage
	c.Storage.Type = getEnv("METACAT_STORAGE_TYPE", c.Storage.Type)
	c.Storage.PostgresURL = getEnv("METACAT_POSTGRES_URL", c.Storage.PostgresURL)
	c.Storage.PostgresMaxConns = getEnvInt("METACAT_POSTGRES_MAX_CONNS", c.Storage.PostgresMaxConns)
	c.Storage.PostgresTimeout = getEnvDuration("METACAT_POSTGRES_TIMEOUT", c.Storage.PostgresTimeout)
	c.Storage.RedisURL = getEnv("METACAT_REDIS_URL", c.Storage.RedisURL)
	c.Storage.RedisPassword = getEnv("METACAT_REDIS_PASSWORD", c.Storage.RedisPassword)
	c.Storage.RedisDB = getEnvInt("METACAT_REDIS_DB", c.Storage.RedisDB)
	c.Storage.RedisPoolSize = getEnvInt("METACAT_REDIS_POOL_SIZE", c.Storage.RedisPoolSize)
	c.Storage.CacheEnabled = getEnvBool("METACAT_CACHE_ENABLED", c.Storage.CacheEnabled)
	c.Storage.L1CacheSize = getEnvInt("METACAT_L1_CACHE_SIZE", c.Storage.L1CacheSize)
	c.Storage.L1CacheTTL = getEnvDuration("METACAT_L1_CACHE_TTL", c.Storage.L1CacheTTL)
	c.Storage.CacheTTL = getEnvDuration("METACAT_CACHE_TTL", c.Storage.CacheTTL)

	// Catalog
	c.Catalog.OpenAccessNoGroups = getEnvBool("METACAT_OPEN_ACCESS_NO_GROUPS", c.Catalog.OpenAccessNoGroups)
	c.Catalog.SideEffectTimeout = getEnvDuration("METACAT_SIDE_EFFECT_TIMEOUT", c.Catalog.SideEffectTimeout)

	// Notify
	c.Notify.EmailServiceURL = getEnv("METACAT_EMAIL_SERVICE_URL", c.Notify.EmailServiceURL)
	c.Notify.RecipientGroup = getEnv("METACAT_NOTIFY_RECIPIENT_GROUP", c.Notify.RecipientGroup)
	c.Notify.Timeout = getEnvDuration("METACAT_NOTIFY_TIMEOUT", c.Notify.Timeout)

	// Relink
	c.Relink.ConverterServiceURL = getEnv("METACAT_CONVERTER_SERVICE_URL", c.Relink.ConverterServiceURL)
	c.Relink.Workers = getEnvInt("METACAT_RELINK_WORKERS", c.Relink.Workers)
	c.Relink.Timeout = getEnvDuration("METACAT_RELINK_TIMEOUT", c.Relink.Timeout)

	// Group sync
	c.GroupSync.Schedule = getEnv("METACAT_GROUP_SYNC_SCHEDULE", c.GroupSync.Schedule)
	c.GroupSync.Workers = getEnvInt("METACAT_GROUP_SYNC_WORKERS", c.GroupSync.Workers)

	// Observability
	c.Observability.LogLevelName = getEnv("METACAT_LOG_LEVEL", c.Observability.LogLevelName)
	c.Observability.MetricsEnabled = getEnvBool("METACAT_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.LogLevel = observability.ParseLevel(c.Observability.LogLevelName)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory or postgres)", c.Storage.Type)
	}

	if c.Storage.CacheEnabled && c.Storage.RedisURL == "" {
		return fmt.Errorf("redis URL is required when the record cache is enabled")
	}

	if c.Relink.Workers < 1 {
		return fmt.Errorf("relink workers must be at least 1")
	}
	if c.GroupSync.Workers < 1 {
		return fmt.Errorf("group sync workers must be at least 1")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
