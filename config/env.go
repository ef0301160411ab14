package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	EnvLocal      = "local"
	EnvProduction = "production"
)

var (
	ErrInvalidEnvironment = fmt.Errorf("invalid environment")
)

// ConfigForEnv returns the preset configuration for a deployment environment.
func ConfigForEnv(env string) (*Config, error) {
	var config *Config
	switch env {
	case EnvLocal, "":
		config = defaults(EnvLocal)
		config.ListenAddr = LocalListenAddr
		config.MetricsAddr = LocalMetricsAddr
		config.DataURI = LocalDataURI
		config.RawURI = LocalRawURI
	case EnvProduction:
		config = defaults(EnvProduction)
		config.ListenAddr = ProductionListenAddr
		config.MetricsAddr = ProductionMetricsAddr
		config.DataURI = ProductionDataURI
		config.RawURI = ProductionRawURI
		config.Cache.Enabled = true
	default:
		return nil, ErrInvalidEnvironment
	}
	return config, nil
}

func defaults(env string) *Config {
	return &Config{
		Env:             env,
		Backend:         BackendDuckDB,
		AllowedOrigins:  slices.Clone(DefaultAllowedOrigins),
		RequestTimeout:  DefaultRequestTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		Cache: CacheConfig{
			TTL: DefaultCacheTTL,
		},
		ClickHouse: ClickHouseConfig{
			Addr:     DefaultClickHouseAddr,
			Database: DefaultClickHouseDatabase,
			Username: DefaultClickHouseUser,
		},
		BatchConcurrency: DefaultBatchConcurrency,
	}
}

// applyEnv overrides fields from environment variables that are set.
func applyEnv(c *Config) error {
	c.ListenAddr = getEnvOrDefault("SCICHART_LISTEN_ADDR", c.ListenAddr)
	c.MetricsAddr = getEnvOrDefault("SCICHART_METRICS_ADDR", c.MetricsAddr)
	c.Backend = getEnvOrDefault("SCICHART_BACKEND", c.Backend)
	c.DataURI = getEnvOrDefault("SCICHART_DATA_URI", c.DataURI)
	c.RawURI = getEnvOrDefault("SCICHART_RAW_URI", c.RawURI)
	if v := os.Getenv("SCICHART_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	c.ClickHouse.Addr = getEnvOrDefault("CLICKHOUSE_ADDR", c.ClickHouse.Addr)
	c.ClickHouse.Database = getEnvOrDefault("CLICKHOUSE_DATABASE", c.ClickHouse.Database)
	c.ClickHouse.Username = getEnvOrDefault("CLICKHOUSE_USER", c.ClickHouse.Username)
	c.ClickHouse.Password = getEnvOrDefault("CLICKHOUSE_PASS", c.ClickHouse.Password)
	if v := os.Getenv("CLICKHOUSE_SECURE"); v != "" {
		c.ClickHouse.Secure = v == "true"
	}

	c.Anthropic.Model = getEnvOrDefault("ANTHROPIC_MODEL", c.Anthropic.Model)
	c.Anthropic.APIKey = getEnvOrDefault("ANTHROPIC_API_KEY", c.Anthropic.APIKey)

	if v := os.Getenv("SCICHART_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SCICHART_CACHE_TTL %q: %w", v, err)
		}
		c.Cache.Enabled = ttl > 0
		c.Cache.TTL = ttl
	}
	if v := os.Getenv("SCICHART_DUCKDB_THREADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCICHART_DUCKDB_THREADS %q: %w", v, err)
		}
		c.DuckDBThreads = n
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
