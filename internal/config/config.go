package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	Archive    ArchiveConfig    `yaml:"archive"`
	AWS        AWSConfig        `yaml:"aws"`
	Import     ImportConfig     `yaml:"import"`
	Validation ValidationConfig `yaml:"validation"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                   int      `yaml:"port" validate:"min=1,max=65535"`
	Host                   string   `yaml:"host"`
	AllowedOrigins         []string `yaml:"allowed_origins"`
	MaxUploadMB            int      `yaml:"max_upload_mb" validate:"min=1"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds" validate:"min=1"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// ShutdownTimeout returns the graceful shutdown budget as a duration
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig holds the PostgreSQL reference store settings
type DatabaseConfig struct {
	URL          string `yaml:"url" validate:"required"`
	MaxOpenConns int    `yaml:"max_open_conns" validate:"min=1"`
	MaxIdleConns int    `yaml:"max_idle_conns" validate:"min=0"`
}

// RedisConfig holds Redis settings for sessions and import locks
type RedisConfig struct {
	URL string `yaml:"url"`
}

// SessionConfig selects the session store backend
type SessionConfig struct {
	Backend            string `yaml:"backend" validate:"oneof=redis dynamodb memory"`
	TTLHours           int    `yaml:"ttl_hours" validate:"min=1"`
	TerminalTTLMinutes int    `yaml:"terminal_ttl_minutes" validate:"min=1"`
	DynamoDBTable      string `yaml:"dynamodb_table" validate:"required_if=Backend dynamodb"`
}

// TTL returns how long a live session document is kept
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// TerminalTTL returns how long an imported or failed session is kept
func (c SessionConfig) TerminalTTL() time.Duration {
	return time.Duration(c.TerminalTTLMinutes) * time.Minute
}

// ArchiveConfig holds the S3 archive of finished sessions
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	S3Bucket string `yaml:"s3_bucket" validate:"required_if=Enabled true"`
	Prefix   string `yaml:"prefix"`
}

// AWSConfig holds the shared AWS client settings
type AWSConfig struct {
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"` // Empty string uses default credential chain (IAM role on ECS)
	// Endpoint points DynamoDB and S3 at a local emulator when set.
	Endpoint string `yaml:"endpoint"`
}

// GetProfile returns the AWS profile, with environment variable override
func (c AWSConfig) GetProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.Profile
}

// ImportConfig holds import engine settings
type ImportConfig struct {
	ProgressEvery  int `yaml:"progress_every" validate:"min=1"`
	LockTTLSeconds int `yaml:"lock_ttl_seconds" validate:"min=1"`
}

// LockTTL returns the lease of the per-session import lock
func (c ImportConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// ValidationConfig holds validation pipeline settings
type ValidationConfig struct {
	ChunkSize              int `yaml:"chunk_size" validate:"min=1"`
	CrossrefTimeoutSeconds int `yaml:"crossref_timeout_seconds" validate:"min=1"`
}

// CrossrefTimeout returns the cross-reference query deadline
func (c ValidationConfig) CrossrefTimeout() time.Duration {
	return time.Duration(c.CrossrefTimeoutSeconds) * time.Second
}

// LogConfig holds logger settings
type LogConfig struct {
	Level         string `yaml:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	RedactSecrets bool   `yaml:"redact_secrets"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{Log: LogConfig{RedactSecrets: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 20
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 30
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "redis"
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = 24
	}
	if cfg.Session.TerminalTTLMinutes == 0 {
		cfg.Session.TerminalTTLMinutes = 60
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "sessions"
	}
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-west-2"
	}
	if cfg.Import.ProgressEvery == 0 {
		cfg.Import.ProgressEvery = 10
	}
	if cfg.Import.LockTTLSeconds == 0 {
		cfg.Import.LockTTLSeconds = 300
	}
	if cfg.Validation.ChunkSize == 0 {
		cfg.Validation.ChunkSize = 500
	}
	if cfg.Validation.CrossrefTimeoutSeconds == 0 {
		cfg.Validation.CrossrefTimeoutSeconds = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// LoadFromEnv loads config from file and overrides with environment variables
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("SESSION_BACKEND"); v != "" {
		cfg.Session.Backend = v
	}
	if v := os.Getenv("SESSION_DYNAMODB_TABLE"); v != "" {
		cfg.Session.DynamoDBTable = v
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3Bucket = v
		cfg.Archive.Enabled = true
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("AWS_ENDPOINT_URL"); v != "" {
		cfg.AWS.Endpoint = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}

// Validate checks the loaded configuration.
func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
