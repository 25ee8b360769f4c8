package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Results   ResultsConfig
	Upload    UploadConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BackendConfig holds settings for the inference/search backend
type BackendConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	ImageHost     string        `mapstructure:"image_host"` // Prefix for relative image URLs
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// CatalogConfig holds product catalog configuration
type CatalogConfig struct {
	Source          string        `mapstructure:"source"` // "none", "file" or "s3"
	Path            string        `mapstructure:"path"`
	Bucket          string        `mapstructure:"bucket"`
	Key             string        `mapstructure:"key"`
	Region          string        `mapstructure:"region"`
	Profile         string        `mapstructure:"profile"`
	UsePathStyle    bool          `mapstructure:"use_path_style"` // For S3-compatible stores such as MinIO
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// CacheConfig holds session storage configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory", "redis" or "bolt"
	RedisURL string        `mapstructure:"redis_url"`
	BoltPath string        `mapstructure:"bolt_path"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // Requests per minute per client IP, 0 disables
}

// ResultsConfig holds pagination configuration
type ResultsConfig struct {
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

// UploadConfig holds image upload limits
type UploadConfig struct {
	MaxBytes     int64 `mapstructure:"max_bytes"`
	MinDimension int   `mapstructure:"min_dimension"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/tilelens/")

	// Environment variable settings
	v.SetEnvPrefix("TILELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional - env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env if present. Variables already set in the
// environment are not overridden.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	// Backend defaults
	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.image_host", "")
	v.SetDefault("backend.timeout", "60s")
	v.SetDefault("backend.rate_per_second", 5.0)
	v.SetDefault("backend.burst", 10)

	// Catalog defaults
	v.SetDefault("catalog.source", "none")
	v.SetDefault("catalog.path", "catalog.yaml")
	v.SetDefault("catalog.bucket", "")
	v.SetDefault("catalog.key", "products.yaml")
	v.SetDefault("catalog.region", "")
	v.SetDefault("catalog.profile", "")
	v.SetDefault("catalog.use_path_style", false)
	v.SetDefault("catalog.refresh_interval", "5m")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.bolt_path", "tilelens.db")
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Result defaults
	v.SetDefault("results.page_size", 9)
	v.SetDefault("results.max_page_size", 50)

	// Upload defaults
	v.SetDefault("upload.max_bytes", 5*1024*1024)
	v.SetDefault("upload.min_dimension", 50)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required (set TILELENS_BACKEND_BASE_URL)")
	}

	switch config.Cache.Type {
	case "memory":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when cache type is 'redis'")
		}
	case "bolt":
		if config.Cache.BoltPath == "" {
			return fmt.Errorf("bolt path is required when cache type is 'bolt'")
		}
	default:
		return fmt.Errorf("cache type must be 'memory', 'redis' or 'bolt', got: %s", config.Cache.Type)
	}

	switch config.Catalog.Source {
	case "none":
	case "file":
		if config.Catalog.Path == "" {
			return fmt.Errorf("catalog path is required when catalog source is 'file'")
		}
	case "s3":
		if config.Catalog.Bucket == "" || config.Catalog.Key == "" {
			return fmt.Errorf("catalog bucket and key are required when catalog source is 's3'")
		}
	default:
		return fmt.Errorf("catalog source must be 'none', 'file' or 's3', got: %s", config.Catalog.Source)
	}

	if config.Results.PageSize <= 0 {
		return fmt.Errorf("results page size must be positive, got: %d", config.Results.PageSize)
	}
	if config.Results.MaxPageSize < config.Results.PageSize {
		return fmt.Errorf("results max page size (%d) must be at least the page size (%d)",
			config.Results.MaxPageSize, config.Results.PageSize)
	}

	return nil
}
