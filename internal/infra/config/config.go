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

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Ephemeris EphemerisConfig `yaml:"ephemeris"`
	Render    RenderConfig    `yaml:"render"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Charts    ChartsConfig    `yaml:"charts"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	Retry        RetryConfig     `yaml:"retry"`
	CORSOrigins  []string        `yaml:"corsOrigins"`
}

// RetryConfig controls replaying requests to Paths after a 503/504. Off by default;
// chart endpoints surface provider failures as-is.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Paths       []string      `yaml:"paths"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// EphemerisConfig holds the astrology provider credentials and pacing.
type EphemerisConfig struct {
	BaseURL           string        `yaml:"baseUrl"`
	TokenURL          string        `yaml:"tokenUrl"`
	ClientID          string        `yaml:"clientId"`
	ClientSecret      string        `yaml:"clientSecret"`
	Ayanamsa          int           `yaml:"ayanamsa"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	Cache             CacheConfig   `yaml:"cache"`
}

// CacheConfig selects the provider response cache backend.
type CacheConfig struct {
	Redis         RedisConfig   `yaml:"redis"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// RenderConfig sizes the chart canvas and the render pool.
type RenderConfig struct {
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Workers int `yaml:"workers"`
}

// ArtifactsConfig selects where rendered charts are published.
type ArtifactsConfig struct {
	Backend       string        `yaml:"backend"`
	Endpoint      string        `yaml:"endpoint"`
	AccessKey     string        `yaml:"accessKey"`
	SecretKey     string        `yaml:"secretKey"`
	Bucket        string        `yaml:"bucket"`
	Region        string        `yaml:"region"`
	PublicBaseURL string        `yaml:"publicBaseUrl"`
	Prefix        string        `yaml:"prefix"`
	PresignExpiry time.Duration `yaml:"presignExpiry"`
}

// ChartsConfig controls chart record persistence.
type ChartsConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

const (
	ArtifactBackendMemory = "memory"
	ArtifactBackendR2     = "r2"
)

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("EPHEMERIS_BASE_URL"); v != "" {
		cfg.Ephemeris.BaseURL = v
	}
	if v := os.Getenv("EPHEMERIS_TOKEN_URL"); v != "" {
		cfg.Ephemeris.TokenURL = v
	}
	if v := os.Getenv("EPHEMERIS_CLIENT_ID"); v != "" {
		cfg.Ephemeris.ClientID = v
	}
	if v := os.Getenv("EPHEMERIS_CLIENT_SECRET"); v != "" {
		cfg.Ephemeris.ClientSecret = v
	}
	if v := os.Getenv("EPHEMERIS_AYANAMSA"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Ephemeris.Ayanamsa = parsed
		}
	}
	if v := os.Getenv("EPHEMERIS_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Ephemeris.Timeout = parsed
		}
	}
	if v := os.Getenv("EPHEMERIS_RPS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Ephemeris.RequestsPerSecond = parsed
		}
	}
	if v := os.Getenv("EPHEMERIS_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Ephemeris.Burst = parsed
		}
	}
	if v := os.Getenv("EPHEMERIS_REDIS_ENABLED"); v != "" {
		cfg.Ephemeris.Cache.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("EPHEMERIS_REDIS_ADDR"); v != "" {
		cfg.Ephemeris.Cache.Redis.Addr = v
	}
	if v := os.Getenv("EPHEMERIS_CACHE_SWEEP_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Ephemeris.Cache.SweepInterval = parsed
		}
	}

	if v := os.Getenv("RENDER_WORKERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Render.Workers = parsed
		}
	}

	if v := os.Getenv("ARTIFACTS_BACKEND"); v != "" {
		cfg.Artifacts.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("R2_ENDPOINT"); v != "" {
		cfg.Artifacts.Endpoint = v
	}
	if v := os.Getenv("R2_ACCESS_KEY"); v != "" {
		cfg.Artifacts.AccessKey = v
	}
	if v := os.Getenv("R2_SECRET_KEY"); v != "" {
		cfg.Artifacts.SecretKey = v
	}
	if v := os.Getenv("R2_BUCKET"); v != "" {
		cfg.Artifacts.Bucket = v
	}
	if v := os.Getenv("R2_REGION"); v != "" {
		cfg.Artifacts.Region = v
	}
	if v := os.Getenv("R2_PUBLIC_BASE_URL"); v != "" {
		cfg.Artifacts.PublicBaseURL = v
	}

	if v := os.Getenv("CHARTS_POSTGRES_DSN"); v != "" {
		cfg.Charts.Postgres.DSN = v
	}
	if v := os.Getenv("CHARTS_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Charts.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("CHARTS_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Charts.Postgres.MinConns = int32(parsed)
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             10,
			},
			Retry: RetryConfig{
				MaxAttempts: 1,
				BaseBackoff: 200 * time.Millisecond,
			},
			CORSOrigins: []string{"*"},
		},
		Ephemeris: EphemerisConfig{
			BaseURL:           "https://api.prokerala.com",
			TokenURL:          "https://api.prokerala.com/token",
			Ayanamsa:          1,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             2,
			Cache: CacheConfig{
				SweepInterval: 5 * time.Minute,
			},
		},
		Render: RenderConfig{
			Width:   1000,
			Height:  1000,
			Workers: 2,
		},
		Artifacts: ArtifactsConfig{
			Backend:       ArtifactBackendMemory,
			Region:        "auto",
			Prefix:        "charts",
			PresignExpiry: 24 * time.Hour,
		},
		Charts: ChartsConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled && c.HTTP.Retry.MaxAttempts < 1 {
		return errors.New("http.retry.maxAttempts must be at least 1")
	}
	if strings.TrimSpace(c.Ephemeris.BaseURL) == "" {
		return errors.New("ephemeris.baseUrl cannot be empty")
	}
	if strings.TrimSpace(c.Ephemeris.TokenURL) == "" {
		return errors.New("ephemeris.tokenUrl cannot be empty")
	}
	if strings.TrimSpace(c.Ephemeris.ClientID) == "" || strings.TrimSpace(c.Ephemeris.ClientSecret) == "" {
		return errors.New("ephemeris.clientId and ephemeris.clientSecret are required")
	}
	if c.Ephemeris.Timeout <= 0 {
		return errors.New("ephemeris.timeout must be positive")
	}
	if c.Ephemeris.RequestsPerSecond < 0 {
		return errors.New("ephemeris.requestsPerSecond cannot be negative")
	}
	if c.Ephemeris.Cache.Redis.Enabled && strings.TrimSpace(c.Ephemeris.Cache.Redis.Addr) == "" {
		return errors.New("ephemeris.cache.redis.addr cannot be empty when redis cache is enabled")
	}
	if c.Ephemeris.Cache.SweepInterval < 0 {
		return errors.New("ephemeris.cache.sweepInterval cannot be negative")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.New("render.width and render.height must be positive")
	}
	if c.Render.Workers < 0 {
		return errors.New("render.workers cannot be negative")
	}
	switch c.Artifacts.Backend {
	case ArtifactBackendMemory:
	case ArtifactBackendR2:
		if strings.TrimSpace(c.Artifacts.Endpoint) == "" || strings.TrimSpace(c.Artifacts.Bucket) == "" {
			return errors.New("artifacts.endpoint and artifacts.bucket are required for the r2 backend")
		}
		if c.Artifacts.AccessKey == "" || c.Artifacts.SecretKey == "" {
			return errors.New("artifacts.accessKey and artifacts.secretKey are required for the r2 backend")
		}
	default:
		return fmt.Errorf("artifacts.backend %q is not supported", c.Artifacts.Backend)
	}
	if c.Charts.Postgres.MaxConns < 0 || c.Charts.Postgres.MinConns < 0 {
		return errors.New("charts.postgres pool sizes cannot be negative")
	}
	return nil
}
