package config

import "time"

const (
	// Local constants.
	LocalListenAddr  = "127.0.0.1:8000"
	LocalMetricsAddr = "127.0.0.1:9090"
	LocalDataURI     = "file://./data/derived"
	LocalRawURI      = "file://./data/raw"

	// Production constants.
	ProductionListenAddr  = "0.0.0.0:8000"
	ProductionMetricsAddr = "0.0.0.0:9090"
	ProductionDataURI     = "s3://scichart-corpus/derived"
	ProductionRawURI      = "s3://scichart-corpus/raw"
)

const (
	BackendDuckDB     = "duckdb"
	BackendClickHouse = "clickhouse"

	DefaultRequestTimeout   = 60 * time.Second
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultCacheTTL         = 10 * time.Minute
	DefaultBatchConcurrency = 4

	DefaultClickHouseAddr     = "localhost:9000"
	DefaultClickHouseDatabase = "default"
	DefaultClickHouseUser     = "default"
)

// DefaultAllowedOrigins are the dashboard dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:5174"}
