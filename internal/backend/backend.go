// Package backend opens the corpus backend selected by configuration.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/malbeclabs/scichart/config"
	"github.com/malbeclabs/scichart/pkg/corpus"
	"github.com/malbeclabs/scichart/pkg/corpus/cache"
	"github.com/malbeclabs/scichart/pkg/corpus/clickhouse"
	"github.com/malbeclabs/scichart/pkg/corpus/duck"
)

// Open returns the configured backend, wrapped in the result cache when
// enabled, and a closer for its underlying connection.
func Open(ctx context.Context, log *slog.Logger, cfg *config.Config) (corpus.Backend, io.Closer, error) {
	var (
		b      corpus.Backend
		closer io.Closer
	)
	switch cfg.Backend {
	case config.BackendDuckDB:
		db, err := OpenDuckDB(ctx, log, cfg.DuckDBThreads, cfg.DataURI, false)
		if err != nil {
			return nil, nil, err
		}
		backend, err := duck.New(duck.Config{Logger: log, DB: db, DataURI: cfg.DataURI})
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to create duckdb backend: %w", err)
		}
		log.Info("backend: using duckdb", "dataURI", cfg.DataURI)
		b, closer = backend, db
	case config.BackendClickHouse:
		conn, err := clickhouse.Open(clickhouse.ConnConfig{
			Addr:     cfg.ClickHouse.Addr,
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
			Secure:   cfg.ClickHouse.Secure,
		})
		if err != nil {
			return nil, nil, err
		}
		backend, err := clickhouse.New(clickhouse.Config{Logger: log, Querier: conn})
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("failed to create clickhouse backend: %w", err)
		}
		log.Info("backend: using clickhouse", "addr", cfg.ClickHouse.Addr, "database", cfg.ClickHouse.Database)
		b, closer = backend, conn
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if cfg.Cache.Enabled {
		cached, err := cache.New(cache.Config{Logger: log, Backend: b, TTL: cfg.Cache.TTL})
		if err != nil {
			_ = closer.Close()
			return nil, nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		log.Info("backend: result cache enabled", "ttl", cfg.Cache.TTL)
		b = cached
	}
	return b, closer, nil
}

// OpenDuckDB opens an in-memory DuckDB configured for reading (and, with
// createBucket, writing) the Parquet files under uri.
func OpenDuckDB(ctx context.Context, log *slog.Logger, threads int, uri string, createBucket bool) (*duck.DB, error) {
	s3Config, err := duck.PrepareS3ConfigForURI(ctx, log, uri, createBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare S3 config: %w", err)
	}
	db, err := duck.Open(ctx, log, threads, s3Config)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return db, nil
}
