package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Overlay    OverlayConfig    `yaml:"overlay"`
	Assistant  AssistantConfig  `yaml:"assistant"`
	Auth       AuthConfig       `yaml:"auth"`
	Images     ImagesConfig     `yaml:"images"`
	Worker     WorkerConfig     `yaml:"worker"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Collection CollectionConfig `yaml:"collection"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// DatabaseConfig selects the collection database.
type DatabaseConfig struct {
	// Driver is "sqlite" or "pgx".
	Driver string `yaml:"driver"`
	// Path is the SQLite file.
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string. It may carry a password, so
	// it is env-only.
	DSN string `yaml:"-"`
}

// OverlayConfig locates the collector's private overlay file.
type OverlayConfig struct {
	Path string `yaml:"path"`
}

// AssistantConfig contains chat completion settings.
type AssistantConfig struct {
	APIKey      string   `yaml:"-"` // env-only, never in YAML
	Model       string   `yaml:"model"`
	VisionModel string   `yaml:"vision_model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Timeout     Duration `yaml:"timeout"`
}

// Configured reports whether an API key is available.
func (a AssistantConfig) Configured() bool {
	return a.APIKey != ""
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// ImagesConfig contains S3-compatible label image storage settings.
// An empty bucket disables remote storage and images stay inline.
type ImagesConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	UseSSL        *bool  `yaml:"use_ssl"`
	PublicBaseURL string `yaml:"public_base_url"`
	AccessKey     string `yaml:"-"`
	SecretKey     string `yaml:"-"`
}

// Configured reports whether remote image storage is enabled.
func (i ImagesConfig) Configured() bool {
	return i.Bucket != ""
}

// WorkerConfig contains background worker settings.
type WorkerConfig struct {
	ImageUploadInterval    Duration `yaml:"image_upload_interval"`
	ImageUploadMaxAttempts int      `yaml:"image_upload_max_attempts"`
	ImageUploadBatchSize   int      `yaml:"image_upload_batch_size"`
	// MetricsInterval is how often collection gauges are refreshed.
	// Zero disables the refresh.
	MetricsInterval Duration `yaml:"metrics_interval"`
}

// RateLimitConfig bounds calls to the AI routes.
type RateLimitConfig struct {
	AIRequestsPerMinute float64 `yaml:"ai_requests_per_minute"`
	AIBurst             int     `yaml:"ai_burst"`
}

// CollectionConfig contains collection policy settings.
type CollectionConfig struct {
	// EnforceQuantity rejects consumption beyond the recorded bottle count.
	// When false the count is advisory and overdrafts are only logged.
	EnforceQuantity bool `yaml:"enforce_quantity"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
func Load() (*Config, error) {
	cfg, err := loadLayers()
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadLocal loads configuration for offline tools that open the database
// directly. The server API key is not required.
func LoadLocal() (*Config, error) {
	cfg, err := loadLayers()
	if err != nil {
		return nil, err
	}

	if err := cfg.validateStorage(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadLayers() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("CELLAR_CONFIG_PATH", "config/cellar.yaml")

	// A missing file is not an error.
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(90 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "data/cellar.db",
		},
		Overlay: OverlayConfig{
			Path: "data/overlay.json",
		},
		Assistant: AssistantConfig{
			Model:       "gpt-4o",
			VisionModel: "gpt-4o",
			MaxTokens:   1024,
			Timeout:     Duration(60 * time.Second),
		},
		Worker: WorkerConfig{
			ImageUploadInterval:    Duration(10 * time.Minute),
			ImageUploadMaxAttempts: 5,
			ImageUploadBatchSize:   20,
			MetricsInterval:        Duration(5 * time.Minute),
		},
		RateLimit: RateLimitConfig{
			AIRequestsPerMinute: 20,
			AIBurst:             5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty, parseable env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	envInt("CELLAR_PORT", &cfg.Server.Port)
	envDuration("CELLAR_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("CELLAR_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("CELLAR_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	if v := os.Getenv("CELLAR_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	// Database
	envString("CELLAR_DB_DRIVER", &cfg.Database.Driver)
	envString("CELLAR_DB_PATH", &cfg.Database.Path)
	envString("CELLAR_DATABASE_DSN", &cfg.Database.DSN)

	// Overlay
	envString("CELLAR_OVERLAY_PATH", &cfg.Overlay.Path)

	// Assistant (OPENAI_API_KEY is industry convention)
	envString("OPENAI_API_KEY", &cfg.Assistant.APIKey)
	envString("CELLAR_ASSISTANT_MODEL", &cfg.Assistant.Model)
	envString("CELLAR_ASSISTANT_VISION_MODEL", &cfg.Assistant.VisionModel)
	envInt("CELLAR_ASSISTANT_MAX_TOKENS", &cfg.Assistant.MaxTokens)
	envDuration("CELLAR_ASSISTANT_TIMEOUT", &cfg.Assistant.Timeout)

	// Auth
	envString("CELLAR_API_KEY", &cfg.Auth.APIKey)

	// Images
	envString("CELLAR_IMAGES_ENDPOINT", &cfg.Images.Endpoint)
	envString("CELLAR_IMAGES_BUCKET", &cfg.Images.Bucket)
	envString("CELLAR_IMAGES_REGION", &cfg.Images.Region)
	envString("CELLAR_IMAGES_PUBLIC_BASE_URL", &cfg.Images.PublicBaseURL)
	envString("CELLAR_IMAGES_ACCESS_KEY", &cfg.Images.AccessKey)
	envString("CELLAR_IMAGES_SECRET_KEY", &cfg.Images.SecretKey)
	if v := os.Getenv("CELLAR_IMAGES_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.Images.UseSSL = &useSSL
	}

	// Worker
	envDuration("CELLAR_IMAGE_UPLOAD_INTERVAL", &cfg.Worker.ImageUploadInterval)
	envInt("CELLAR_IMAGE_UPLOAD_MAX_ATTEMPTS", &cfg.Worker.ImageUploadMaxAttempts)
	envInt("CELLAR_IMAGE_UPLOAD_BATCH_SIZE", &cfg.Worker.ImageUploadBatchSize)
	envDuration("CELLAR_METRICS_INTERVAL", &cfg.Worker.MetricsInterval)

	// Rate limit
	if v := os.Getenv("CELLAR_AI_REQUESTS_PER_MINUTE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.AIRequestsPerMinute = f
		}
	}
	envInt("CELLAR_AI_BURST", &cfg.RateLimit.AIBurst)

	// Collection
	if v := os.Getenv("CELLAR_ENFORCE_QUANTITY"); v != "" {
		cfg.Collection.EnforceQuantity = v == "true" || v == "1"
	}

	// Log
	envString("CELLAR_LOG_LEVEL", &cfg.Log.Level)
	envString("CELLAR_LOG_FORMAT", &cfg.Log.Format)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validate checks that configuration values are usable.
// In dev mode (CELLAR_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	if os.Getenv("CELLAR_DEV_MODE") == "true" {
		return nil
	}

	if c.Auth.APIKey == "" {
		return errors.New("CELLAR_API_KEY is required")
	}
	return nil
}

// validateStorage checks the database and image storage settings.
func (c *Config) validateStorage() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
	case "pgx":
		if c.Database.DSN == "" {
			return errors.New("CELLAR_DATABASE_DSN is required for the pgx driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Images.Configured() && c.Images.Endpoint == "" {
		return errors.New("images.endpoint is required when images.bucket is set")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
