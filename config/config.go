package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env string `yaml:"env"`

	ListenAddr      string        `yaml:"listen_addr"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Backend selects the corpus backend, duckdb or clickhouse.
	Backend       string           `yaml:"backend"`
	DataURI       string           `yaml:"data_uri"`
	RawURI        string           `yaml:"raw_uri"`
	DuckDBThreads int              `yaml:"duckdb_threads"`
	ClickHouse    ClickHouseConfig `yaml:"clickhouse"`
	Cache         CacheConfig      `yaml:"cache"`

	Anthropic AnthropicConfig `yaml:"anthropic"`

	BatchConcurrency int `yaml:"batch_concurrency"`
}

type ClickHouseConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`
	Secure   bool   `yaml:"secure"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

type AnthropicConfig struct {
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
	APIKey    string `yaml:"-"`
}

// Load builds the configuration for env, layering an optional YAML file and
// then environment variables over the environment preset.
func Load(env, path string) (*Config, error) {
	cfg, err := ConfigForEnv(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, env)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen address is required")
	}
	switch c.Backend {
	case BackendDuckDB:
		if c.DataURI == "" {
			return errors.New("data URI is required for the duckdb backend")
		}
	case BackendClickHouse:
		if c.ClickHouse.Addr == "" {
			return errors.New("CLICKHOUSE_ADDR is required for the clickhouse backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return errors.New("cache TTL must be positive when the cache is enabled")
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = DefaultBatchConcurrency
	}
	return nil
}
