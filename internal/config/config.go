package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	CORS     CORSConfig     `yaml:"cors"`
	Sender   SenderConfig   `yaml:"sender"`
	Composer ComposerConfig `yaml:"composer"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// CORSConfig lists the browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SenderConfig holds the remote sending service configuration
type SenderConfig struct {
	BaseURL        string `yaml:"base_url"`
	Path           string `yaml:"path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the configured timeout as a duration
func (c SenderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// URL returns the full submission endpoint
func (c SenderConfig) URL() string {
	return c.BaseURL + c.Path
}

// ComposerConfig holds limits for composer sessions
type ComposerConfig struct {
	MaxFileBytes       int64 `yaml:"max_file_bytes"`
	MaxAttachmentBytes int64 `yaml:"max_attachment_bytes"`
	SessionTTLMinutes  int   `yaml:"session_ttl_minutes"`
	MaxSessions        int   `yaml:"max_sessions"`
}

// SessionTTL returns the idle session lifetime as a duration
func (c ComposerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// ArchiveConfig holds submission archive configuration
type ArchiveConfig struct {
	Type       string `yaml:"type"` // "local", "s3" or "none"
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c ArchiveConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// DatabaseConfig holds the submission history database
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// Enabled reports whether a database is configured
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// RedisConfig holds the Redis connection used for submission locks
type RedisConfig struct {
	URL           string `yaml:"url"`
	LockTTLSecond int    `yaml:"lock_ttl_seconds"`
}

// Enabled reports whether Redis is configured
func (c RedisConfig) Enabled() bool { return c.URL != "" }

// LockTTL returns the submission lock TTL as a duration
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSecond) * time.Second
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether recipient addresses are masked in logs (default true)
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if cfg.Sender.BaseURL == "" {
		cfg.Sender.BaseURL = "http://localhost:8000"
	}
	if cfg.Sender.Path == "" {
		cfg.Sender.Path = "/send-emails-with-attachment"
	}
	if cfg.Sender.TimeoutSeconds == 0 {
		cfg.Sender.TimeoutSeconds = 60
	}
	if cfg.Composer.MaxFileBytes == 0 {
		cfg.Composer.MaxFileBytes = 10 << 20
	}
	if cfg.Composer.MaxAttachmentBytes == 0 {
		cfg.Composer.MaxAttachmentBytes = 10 << 20
	}
	if cfg.Composer.SessionTTLMinutes == 0 {
		cfg.Composer.SessionTTLMinutes = 60
	}
	if cfg.Composer.MaxSessions == 0 {
		cfg.Composer.MaxSessions = 1000
	}
	if cfg.Archive.Type == "" {
		cfg.Archive.Type = "none"
	}
	if cfg.Archive.LocalPath == "" {
		cfg.Archive.LocalPath = "./data/submissions"
	}
	if cfg.Archive.S3Prefix == "" {
		cfg.Archive.S3Prefix = "submissions/"
	}
	if cfg.Archive.AWSRegion == "" {
		cfg.Archive.AWSRegion = "us-west-2"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Redis.LockTTLSecond == 0 {
		cfg.Redis.LockTTLSecond = 120
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets
// can live in .env locally and in real env vars in production. A missing
// config file falls back to defaults.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SENDER_BASE_URL"); v != "" {
		cfg.Sender.BaseURL = v
	}
	if v := os.Getenv("SENDER_PATH"); v != "" {
		cfg.Sender.Path = v
	}
	if v := os.Getenv("SENDER_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sender.MaxRetries = n
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3Bucket = v
		cfg.Archive.Type = "s3"
	}
	if v := os.Getenv("ARCHIVE_S3_REGION"); v != "" {
		cfg.Archive.AWSRegion = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}
