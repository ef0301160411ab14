package duck

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DB is an in-memory DuckDB instance used to query Parquet files in place.
type DB struct {
	log *slog.Logger
	db  *sql.DB
}

// Open creates an in-memory DuckDB. When s3Config is non-nil the httpfs and
// aws extensions are loaded and an S3 secret is registered so read_parquet
// and COPY can address s3:// URIs.
func Open(ctx context.Context, log *slog.Logger, threads int, s3Config *S3Config) (*DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if threads > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET threads = %d", threads)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set threads: %w", err)
		}
	}

	if s3Config != nil {
		if err := configureS3(ctx, db, s3Config); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("duck: configured S3 storage", "endpoint", s3Config.Endpoint, "region", s3Config.Region)
	}

	return &DB{log: log, db: db}, nil
}

func configureS3(ctx context.Context, db *sql.DB, cfg *S3Config) error {
	for _, ext := range []string{"httpfs", "aws"} {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("INSTALL '%s'", ext)); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf("LOAD '%s'", ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}
	if _, err := db.ExecContext(ctx, cfg.secretSQL()); err != nil {
		return fmt.Errorf("failed to create S3 secret: %w", err)
	}
	return nil
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, query, args...)
}

func (d *DB) PingContext(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

// quote renders s as a single-quoted SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
