package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendS3     = "s3"
)

type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Export    ExportConfig
	Remover   RemoverConfig
	Cache     CacheConfig
	Redis     RedisConfig
	S3        S3Config
	Log       LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
}

type UploadConfig struct {
	MaxBytes  int64 `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`
	MaxWidth  int   `envconfig:"UPLOAD_MAX_WIDTH" default:"8192"`
	MaxHeight int   `envconfig:"UPLOAD_MAX_HEIGHT" default:"8192"`
}

type ExportConfig struct {
	JPEGQuality int `envconfig:"EXPORT_JPEG_QUALITY" default:"95"`
}

// RemoverConfig points at a rembg-compatible HTTP server. An empty URL leaves the
// removal capability unconfigured.
type RemoverConfig struct {
	URL                 string        `envconfig:"REMOVER_URL"`
	Model               string        `envconfig:"REMOVER_MODEL"`
	Timeout             time.Duration `envconfig:"REMOVER_TIMEOUT" default:"60s"`
	BreakerTimeout      time.Duration `envconfig:"REMOVER_BREAKER_TIMEOUT" default:"30s"`
	BreakerMinRequests  uint32        `envconfig:"REMOVER_BREAKER_MIN_REQUESTS" default:"5"`
	BreakerFailureRatio float64       `envconfig:"REMOVER_BREAKER_FAILURE_RATIO" default:"0.5"`
}

func (c RemoverConfig) Enabled() bool {
	return c.URL != ""
}

type CacheConfig struct {
	Backend  string        `envconfig:"CACHE_BACKEND" default:"memory"`
	Capacity int           `envconfig:"CACHE_CAPACITY" default:"32"`
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"24h"`
}

type S3Config struct {
	Endpoint        string `envconfig:"S3_ENDPOINT"`
	Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	Bucket          string `envconfig:"S3_BUCKET"`
	Prefix          string `envconfig:"S3_PREFIX" default:"removals"`
	AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

type RedisConfig struct {
	Host      string `envconfig:"REDIS_HOST" default:"localhost"`
	Port      int    `envconfig:"REDIS_PORT" default:"6379"`
	Password  string `envconfig:"REDIS_PASSWORD" default:""`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"bgremover"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RateLimitConfig struct {
	Enabled        bool `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
	RequestsPerMin int  `envconfig:"RATE_LIMIT_REQUESTS_PER_MIN" default:"30"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Cache.Backend == CacheBackendRedis || c.RateLimit.Enabled
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	case CacheBackendS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when CACHE_BACKEND=s3"))
		}
		if c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
			errs = append(errs, errors.New("S3 credentials are required when CACHE_BACKEND=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend))
	}

	if c.Cache.Capacity < 1 {
		errs = append(errs, errors.New("CACHE_CAPACITY must be positive"))
	}
	if c.Upload.MaxBytes < 1 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		errs = append(errs, errors.New("EXPORT_JPEG_QUALITY must be between 1 and 100"))
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS_PER_MIN must be positive"))
	}

	return errors.Join(errs...)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}
