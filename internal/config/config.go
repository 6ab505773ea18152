package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Client    ClientConfig    `yaml:"client"`
	Timezone  string          `yaml:"timezone"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	SSLMode         string `yaml:"sslmode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// DSN renders the lib/pq connection string
func (c PostgresConfig) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslmode)
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
	RadiusKm    float64           `yaml:"radius_km"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	APIKey  string `yaml:"api_key"`
	Index   string `yaml:"index"`
}

// CacheConfig contains the search row cache settings
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// GetTTL returns the cache TTL as a duration
func (c *RedisConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// AuthConfig contains identity token settings. An empty secret means
// tokens were verified upstream and are only decoded here.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	RoleClaim string `yaml:"role_claim"`
}

// SchedulerConfig contains background job settings
type SchedulerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ReindexTime      string `yaml:"reindex_time"`
	OverdueSpec      string `yaml:"overdue_spec"`
	RunReindexOnBoot bool   `yaml:"run_reindex_on_boot"`
}

// RateLimitConfig contains rate limiting settings for mutating routes
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	LogRequests bool   `yaml:"log_requests"`
}

// ClientConfig contains settings of the browse CLI
type ClientConfig struct {
	BaseURL        string `yaml:"base_url"`
	DebounceMillis int    `yaml:"debounce_ms"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// GetDebounce returns the URL sync debounce as a duration
func (c *ClientConfig) GetDebounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// GetTimeout returns the HTTP timeout as a duration
func (c *ClientConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				User:            "postgres",
				Database:        "rentiful",
				SSLMode:         "disable",
				MaxOpenConns:    10,
				ConnMaxLifetime: 30,
			},
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{
				Enabled: false,
				Host:    "http://localhost:7700",
				Index:   "listings",
			},
			RadiusKm: 1000,
		},
		Cache: CacheConfig{
			Redis: RedisConfig{
				Enabled:    false,
				Addr:       "localhost:6379",
				TTLSeconds: 60,
			},
		},
		Auth: AuthConfig{
			RoleClaim: "custom:role",
		},
		Scheduler: SchedulerConfig{
			Enabled:     false,
			ReindexTime: "03:00",
			OverdueSpec: "@hourly",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			RequestsPerHour:   600,
		},
		Logging: LoggingConfig{
			Level:       "warn",
			LogRequests: true,
		},
		Client: ClientConfig{
			BaseURL:        "http://localhost:8080",
			DebounceMillis: 300,
			TimeoutSeconds: 10,
		},
		Timezone: "UTC",
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides file values with environment variables where set
func (c *Config) ApplyEnv() {
	c.Server.Port = GetEnvOrConfig("PORT", c.Server.Port)

	pg := &c.Database.Postgres
	pg.Host = GetEnvOrConfig("DB_HOST", pg.Host)
	pg.Port = getEnvInt("DB_PORT", pg.Port)
	pg.User = GetEnvOrConfig("DB_USER", pg.User)
	pg.Password = GetEnvOrConfig("DB_PASSWORD", pg.Password)
	pg.Database = GetEnvOrConfig("DB_NAME", pg.Database)
	pg.SSLMode = GetEnvOrConfig("DB_SSLMODE", pg.SSLMode)

	ms := &c.Search.Meilisearch
	ms.Host = GetEnvOrConfig("MEILI_HOST", ms.Host)
	ms.APIKey = GetEnvOrConfig("MEILI_API_KEY", ms.APIKey)

	rd := &c.Cache.Redis
	rd.Addr = GetEnvOrConfig("REDIS_ADDR", rd.Addr)
	rd.Password = GetEnvOrConfig("REDIS_PASSWORD", rd.Password)

	c.Auth.JWTSecret = GetEnvOrConfig("JWT_SECRET", c.Auth.JWTSecret)
	c.Client.BaseURL = GetEnvOrConfig("RENTIFUL_API_URL", c.Client.BaseURL)
}

// GetEnv returns the environment value or defaultValue when unset
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvOrConfig prefers the environment over the config file value
func GetEnvOrConfig(envKey, configValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return configValue
}

func getEnvInt(key string, configValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return configValue
}
