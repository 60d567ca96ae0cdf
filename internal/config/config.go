package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv overrides the default config file location
const ConfigPathEnv = "APP_CONFIG"

// DefaultConfigPath is read when APP_CONFIG is unset
const DefaultConfigPath = "configs/config.yaml"

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port         string `yaml:"port" env:"SERVER_PORT"`
		Mode         string `yaml:"mode" env:"SERVER_MODE"`
		ReadTimeout  string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		BaseURL      string `yaml:"base_url" env:"SERVER_BASE_URL"`
		// MaxUploadBytes bounds bulk CSV uploads
		MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		ResetTokenExpiration   string `yaml:"reset_token_expiration" env:"JWT_RESET_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Audit struct {
		// Backend is memory or redis
		Backend    string `yaml:"backend" env:"AUDIT_BACKEND"`
		BufferSize int    `yaml:"buffer_size" env:"AUDIT_BUFFER_SIZE"`
		RedisKey   string `yaml:"redis_key" env:"AUDIT_REDIS_KEY"`
	} `yaml:"audit"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	Cache struct {
		StatsTTL    string `yaml:"stats_ttl" env:"CACHE_STATS_TTL"`
		StagingTTL  string `yaml:"staging_ttl" env:"CACHE_STAGING_TTL"`
		StagingSize int    `yaml:"staging_size" env:"CACHE_STAGING_SIZE"`
	} `yaml:"cache"`

	RateLimit struct {
		Enabled   bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		PerMinute int  `yaml:"per_minute" env:"RATE_LIMIT_PER_MINUTE"`
		Burst     int  `yaml:"burst" env:"RATE_LIMIT_BURST"`
	} `yaml:"rate_limit"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
	} `yaml:"smtp"`

	Seed struct {
		Enabled    bool   `yaml:"enabled" env:"SEED_ENABLED"`
		Email      string `yaml:"email" env:"SEED_ADMIN_EMAIL"`
		Password   string `yaml:"password" env:"SEED_ADMIN_PASSWORD"`
		FullName   string `yaml:"full_name" env:"SEED_ADMIN_FULL_NAME"`
		EmployeeID string `yaml:"employee_id" env:"SEED_ADMIN_EMPLOYEE_ID"`
	} `yaml:"seed"`
}

// ResolvePath returns the config path from APP_CONFIG or the default location
func ResolvePath() string {
	if p := strings.TrimSpace(os.Getenv(ConfigPathEnv)); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// A missing file is fine; defaults and env still apply
	if file, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ReadTimeout = "15s"
	config.Server.WriteTimeout = "60s"
	config.Server.BaseURL = "http://localhost:8080"
	config.Server.MaxUploadBytes = 5 << 20

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "alumnitrack"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.AutoMigrate = true

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.ResetTokenExpiration = "1h"
	config.JWT.Issuer = "alumnitrack"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Audit.Backend = "memory"
	config.Audit.BufferSize = 1024
	config.Audit.RedisKey = "alumnitrack:audit"

	config.Redis.Addr = "localhost:6379"

	config.Cache.StatsTTL = "1m"
	config.Cache.StagingTTL = "30m"
	config.Cache.StagingSize = 64

	config.RateLimit.Enabled = true
	config.RateLimit.PerMinute = 30
	config.RateLimit.Burst = 10

	config.SMTP.Port = 587
	config.SMTP.FromName = "Alumni Tracker"
	config.SMTP.FromEmail = "no-reply@alumnitrack.local"

	config.Seed.Enabled = true
	config.Seed.FullName = "System Administrator"
	config.Seed.EmployeeID = "SUPER-001"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"server read timeout":          config.Server.ReadTimeout,
		"server write timeout":         config.Server.WriteTimeout,
		"database conn max lifetime":   config.Database.ConnMaxLifetime,
		"JWT access token expiration":  config.JWT.AccessTokenExpiration,
		"JWT refresh token expiration": config.JWT.RefreshTokenExpiration,
		"JWT reset token expiration":   config.JWT.ResetTokenExpiration,
		"stats cache TTL":              config.Cache.StatsTTL,
		"staging cache TTL":            config.Cache.StagingTTL,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch config.Audit.Backend {
	case "memory":
	case "redis":
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis audit backend")
		}
	default:
		return fmt.Errorf("unsupported audit backend %q", config.Audit.Backend)
	}

	if config.Audit.BufferSize <= 0 {
		return fmt.Errorf("audit buffer size must be positive")
	}
	if config.Cache.StagingSize <= 0 {
		return fmt.Errorf("staging cache size must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	return c.connectionURL("postgres")
}

// GetMigrateConnectionString returns the connection string for the golang-migrate pgx/v5 driver
func (c *Config) GetMigrateConnectionString() string {
	return c.connectionURL("pgx5")
}

func (c *Config) connectionURL(scheme string) string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}
