package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string
	Host        string
	Port        int
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// training backend
	BackendBaseURL        string `toml:"backend_base_url"`
	BackendTimeoutSeconds int    `toml:"backend_timeout_seconds"`
	// session engine
	ClockTickMillis                  int `toml:"clock_tick_millis"`
	RecommendationCacheTTLSeconds    int `toml:"recommendation_cache_ttl_seconds"`
	RecommendationCacheSizeMegabytes int `toml:"recommendation_cache_size_mb"`
	StartRateLimitPerMin             int `toml:"start_session_rate_limit_per_min"`
	// redis
	RedisHost        string `toml:"redis_host"`
	RedisPort        string `toml:"redis_port"`
	ResumeTTLMinutes int    `toml:"resume_ttl_minutes"`
	// cors
	AllowedOrigins []string `toml:"allowed_origins"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the section for env,
// with unset values replaced by defaults.
func Load(env, path string) (*Config, error) {
	var cfgToml Toml
	if _, err := toml.DecodeFile(path, &cfgToml); err != nil {
		return nil, fmt.Errorf("decode toml config [%s]: %w", path, err)
	}

	cfg, err := cfgToml.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("backend_base_url not set for env: %s", env)
	}

	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9100
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2113"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.BackendTimeoutSeconds <= 0 {
		c.BackendTimeoutSeconds = 15
	}
	if c.ClockTickMillis <= 0 {
		c.ClockTickMillis = 1000
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.ResumeTTLMinutes <= 0 {
		c.ResumeTTLMinutes = 6 * 60
	}
	if c.StartRateLimitPerMin <= 0 {
		c.StartRateLimitPerMin = 10
	}
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSeconds) * time.Second
}

func (c *Config) ClockTickPeriod() time.Duration {
	return time.Duration(c.ClockTickMillis) * time.Millisecond
}

func (c *Config) RecommendationCacheTTL() time.Duration {
	return time.Duration(c.RecommendationCacheTTLSeconds) * time.Second
}

func (c *Config) ResumeTTL() time.Duration {
	return time.Duration(c.ResumeTTLMinutes) * time.Minute
}
