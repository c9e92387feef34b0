package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Database types understood by the account store wiring.
const (
	DatabasePostgres  = "postgres"
	DatabaseSQLServer = "sqlserver"
	DatabaseNone      = "none"
)

// Config holds all configuration for the reconciler.
// Values come from a YAML file with environment variable overrides.
// Secrets are read from the environment only (yaml:"-" fields).
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	CRM      CRMConfig      `yaml:"crm"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`

	// CatalogPath points at the business catalog (curriculum table, course
	// naming, group tags, override allow-list).
	CatalogPath string `yaml:"catalog_path" env:"CATALOG_PATH" env-default:"configs/catalog.yaml"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	BindAddr     string        `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port         string        `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"5m"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.BindAddr + ":" + s.Port
}

// CRMConfig holds the lead source settings.
type CRMConfig struct {
	WebhookURL    string        `yaml:"-" env:"CRM_WEBHOOK_URL"` // Secret - not in YAML
	CategoryID    string        `yaml:"category_id" env:"CRM_CATEGORY_ID" env-default:"81"`
	PageSize      int           `yaml:"page_size" env:"CRM_PAGE_SIZE" env-default:"50"`
	MaxParallel   int           `yaml:"max_parallel" env:"CRM_MAX_PARALLEL" env-default:"20"`
	Timeout       time.Duration `yaml:"timeout" env:"CRM_TIMEOUT" env-default:"15s"`
	MaxRetries    uint64        `yaml:"max_retries" env:"CRM_MAX_RETRIES" env-default:"3"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"CRM_RETRY_INTERVAL" env-default:"500ms"`
}

// DatabaseConfig holds the account store connection.
type DatabaseConfig struct {
	Type           string `yaml:"type" env:"DB_TYPE" env-default:"postgres"`
	Host           string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"DB_PORT" env-default:"0"`
	User           string `yaml:"user" env:"DB_USER" env-default:"lms"`
	Password       string `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"DB_NAME" env-default:"lms"`
	SSLMode        string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	Encrypt        string `yaml:"encrypt" env:"DB_ENCRYPT" env-default:""`
	MaxConnections int32  `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"25"`
}

// AuthConfig holds the basic-auth credentials of the HTTP API.
type AuthConfig struct {
	AdminUser     string `yaml:"admin_user" env:"AUTH_ADMIN_USER" env-default:"admin"`
	AdminPassword string `yaml:"-" env:"AUTH_ADMIN_PASSWORD"` // Secret - not in YAML
	SalesUser     string `yaml:"sales_user" env:"AUTH_SALES_USER" env-default:"sales"`
	SalesPassword string `yaml:"-" env:"AUTH_SALES_PASSWORD"` // Secret - not in YAML
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT" env-default:"false"`
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error: the environment alone is used.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	switch c.Database.Type {
	case DatabasePostgres, DatabaseSQLServer, DatabaseNone:
	default:
		return fmt.Errorf("database.type must be %s, %s or %s, got %q",
			DatabasePostgres, DatabaseSQLServer, DatabaseNone, c.Database.Type)
	}
	if c.CRM.PageSize <= 0 {
		return fmt.Errorf("crm.page_size must be positive, got %d", c.CRM.PageSize)
	}
	if c.CRM.MaxParallel <= 0 {
		return fmt.Errorf("crm.max_parallel must be positive, got %d", c.CRM.MaxParallel)
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric, got %q", c.Server.Port)
	}
	return nil
}

// PostgresURL returns a PostgreSQL connection URL.
func (c *DatabaseConfig) PostgresURL() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}
