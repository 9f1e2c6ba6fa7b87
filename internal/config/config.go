package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Email      EmailConfig      `yaml:"email"`
	JWT        JWTConfig        `yaml:"jwt"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
	Lending    LendingConfig    `yaml:"lending"`
	Activation ActivationConfig `yaml:"activation"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// DatabaseConfig selects the storage backend. Driver "memory" keeps everything
// in process and ignores the connection fields.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_open_conns"`
}

// EmailConfig contains activation mail settings. Provider "log" only writes the
// mail to the application log.
type EmailConfig struct {
	Provider      string `yaml:"provider"`
	APIKey        string `yaml:"api_key"`
	From          string `yaml:"from"`
	FromName      string `yaml:"from_name"`
	ActivationURL string `yaml:"activation_url"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// StorageConfig contains cover file storage settings
type StorageConfig struct {
	UploadDir    string   `yaml:"upload_dir"`
	MaxFileSize  int64    `yaml:"max_file_size_mb"`
	AllowedTypes []string `yaml:"allowed_types"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// LendingConfig controls how often a lending transaction aborted by the
// database is replayed.
type LendingConfig struct {
	RetryAttempts    int `yaml:"retry_attempts"`
	RetryBaseDelayMs int `yaml:"retry_base_delay_ms"`
}

// ActivationConfig contains account activation token settings
type ActivationConfig struct {
	TokenTTLMinutes int `yaml:"token_ttl_minutes"`
	RetentionHours  int `yaml:"retention_hours"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	PurgeExpiredTokens string `yaml:"purge_expired_tokens"`
}

// Load reads the optional .env file, then the YAML file, then applies
// environment overrides and validation.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML data and applies environment overrides and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) overrideWithEnv() {
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSL_MODE")

	setString(&c.Email.Provider, "EMAIL_PROVIDER")
	setString(&c.Email.APIKey, "SENDGRID_API_KEY")
	setString(&c.Email.From, "EMAIL_FROM")
	setString(&c.Email.ActivationURL, "ACTIVATION_URL")

	setString(&c.JWT.Secret, "JWT_SECRET")

	setString(&c.Server.Host, "SERVER_HOST")
	setInt(&c.Server.Port, "SERVER_PORT")

	setString(&c.Storage.UploadDir, "UPLOAD_DIR")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	setInt(&c.Lending.RetryAttempts, "LENDING_RETRY_ATTEMPTS")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8088
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 15
	}

	c.Database.Driver = strings.ToLower(c.Database.Driver)
	switch c.Database.Driver {
	case "":
		c.Database.Driver = "postgres"
		fallthrough
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	switch strings.ToLower(c.Email.Provider) {
	case "", "log":
		c.Email.Provider = "log"
	case "sendgrid":
		c.Email.Provider = "sendgrid"
		if c.Email.APIKey == "" {
			return fmt.Errorf("sendgrid api key is required")
		}
	default:
		return fmt.Errorf("unknown email provider: %s", c.Email.Provider)
	}
	if c.Email.From == "" {
		c.Email.From = "no-reply@booknetwork.local"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Book Network"
	}
	if c.Email.ActivationURL == "" {
		c.Email.ActivationURL = "http://localhost:4200/activate-account"
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 24 * 60
	}

	if c.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	if c.Storage.MaxFileSize == 0 {
		c.Storage.MaxFileSize = 5
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Lending.RetryAttempts == 0 {
		c.Lending.RetryAttempts = 3
	}
	if c.Lending.RetryAttempts < 1 {
		return fmt.Errorf("lending retry attempts must be positive: %d", c.Lending.RetryAttempts)
	}
	if c.Lending.RetryBaseDelayMs == 0 {
		c.Lending.RetryBaseDelayMs = 20
	}

	if c.Activation.TokenTTLMinutes == 0 {
		c.Activation.TokenTTLMinutes = 15
	}
	if c.Activation.RetentionHours == 0 {
		c.Activation.RetentionHours = 24
	}

	if c.Scheduler.PurgeExpiredTokens == "" {
		c.Scheduler.PurgeExpiredTokens = "0 0 * * * *" // hourly
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}

func (c *Config) ActivationTokenTTL() time.Duration {
	return time.Duration(c.Activation.TokenTTLMinutes) * time.Minute
}

func (c *Config) TokenRetention() time.Duration {
	return time.Duration(c.Activation.RetentionHours) * time.Hour
}

func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Lending.RetryBaseDelayMs) * time.Millisecond
}

func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxFileSize << 20
}
