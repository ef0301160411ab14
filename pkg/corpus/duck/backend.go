package duck

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/malbeclabs/scichart/pkg/corpus"
	"github.com/malbeclabs/scichart/pkg/metrics"
)

const backendName = "duckdb"

// Derived table files expected under the data URI.
const (
	PaperIDsFile    = "paperids.parquet"
	PapersFile      = "papers.parquet"
	PaperFieldsFile = "paperfields.parquet"
	FieldsFile      = "fields.parquet"
)

type Config struct {
	Logger *slog.Logger
	DB     *DB

	// DataURI is the directory holding the derived Parquet files, as a
	// file:// URI, a bare local path, or an s3:// prefix.
	DataURI string
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.DataURI == "" {
		return fmt.Errorf("data URI is required")
	}
	return nil
}

// Backend answers corpus queries with DuckDB read_parquet scans.
type Backend struct {
	log *slog.Logger
	db  *DB

	papers      string
	paperFields string
	fields      string
}

func New(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dir, err := ResolveDataPath(cfg.DataURI)
	if err != nil {
		return nil, err
	}
	return &Backend{
		log:         cfg.Logger,
		db:          cfg.DB,
		papers:      JoinDataPath(dir, PapersFile),
		paperFields: JoinDataPath(dir, PaperFieldsFile),
		fields:      JoinDataPath(dir, FieldsFile),
	}, nil
}

func (b *Backend) PapersByYear(ctx context.Context, q corpus.YearQuery) ([]corpus.YearCount, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	where := "year BETWEEN ? AND ?"
	args := []any{q.YearFrom, q.YearTo}
	if q.Doctype != "" {
		where += " AND doctype = ?"
		args = append(args, q.Doctype)
	}
	query := fmt.Sprintf(`
		SELECT CAST(year AS BIGINT) AS year, COUNT(*) AS n_papers
		FROM read_parquet(%s)
		WHERE %s
		GROUP BY year
		ORDER BY year`, quote(b.papers), where)

	start := time.Now()
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		observe("papers_by_year", start, err)
		return nil, fmt.Errorf("failed to query papers by year: %w", err)
	}
	defer rows.Close()

	var out []corpus.YearCount
	for rows.Next() {
		var year, n int64
		if err := rows.Scan(&year, &n); err != nil {
			observe("papers_by_year", start, err)
			return nil, fmt.Errorf("failed to scan papers by year row: %w", err)
		}
		out = append(out, corpus.YearCount{Year: int(year), Count: n})
	}
	if err := rows.Err(); err != nil {
		observe("papers_by_year", start, err)
		return nil, fmt.Errorf("failed to read papers by year rows: %w", err)
	}
	observe("papers_by_year", start, nil)
	b.log.Debug("duck: papers by year", "yearFrom", q.YearFrom, "yearTo", q.YearTo, "doctype", q.Doctype, "rows", len(out), "duration", time.Since(start))
	return out, nil
}

func (b *Backend) PapersByField(ctx context.Context, q corpus.FieldQuery) ([]corpus.FieldCount, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	where := "p.year BETWEEN ? AND ? AND pf.score_openalex >= ? AND f.level = ?"
	args := []any{q.YearFrom, q.YearTo, q.ScoreMin, q.Level}
	if q.Doctype != "" {
		where += " AND p.doctype = ?"
		args = append(args, q.Doctype)
	}
	query := fmt.Sprintf(`
		SELECT f.display_name AS label, COUNT(DISTINCT p.paperid) AS n_papers
		FROM read_parquet(%s) p
		JOIN read_parquet(%s) pf ON p.paperid = pf.paperid
		JOIN read_parquet(%s) f ON pf.fieldid = f.fieldid
		WHERE %s
		GROUP BY f.display_name
		ORDER BY n_papers DESC, label ASC
		LIMIT %d`, quote(b.papers), quote(b.paperFields), quote(b.fields), where, q.TopK)

	start := time.Now()
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		observe("papers_by_field", start, err)
		return nil, fmt.Errorf("failed to query papers by field: %w", err)
	}
	defer rows.Close()

	var out []corpus.FieldCount
	for rows.Next() {
		var fc corpus.FieldCount
		if err := rows.Scan(&fc.Label, &fc.Count); err != nil {
			observe("papers_by_field", start, err)
			return nil, fmt.Errorf("failed to scan papers by field row: %w", err)
		}
		out = append(out, fc)
	}
	if err := rows.Err(); err != nil {
		observe("papers_by_field", start, err)
		return nil, fmt.Errorf("failed to read papers by field rows: %w", err)
	}
	observe("papers_by_field", start, nil)
	b.log.Debug("duck: papers by field", "yearFrom", q.YearFrom, "yearTo", q.YearTo, "level", q.Level, "scoreMin", q.ScoreMin, "topK", q.TopK, "rows", len(out), "duration", time.Since(start))
	return out, nil
}

// Ping checks that the papers table is readable.
func (b *Backend) Ping(ctx context.Context) error {
	query := fmt.Sprintf("SELECT COUNT(*) FROM (SELECT 1 FROM read_parquet(%s) LIMIT 1)", quote(b.papers))
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to read papers table: %w", err)
	}
	return rows.Close()
}

func observe(query string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BackendQueriesTotal.WithLabelValues(backendName, query, status).Inc()
	metrics.BackendQueryDuration.WithLabelValues(backendName, query).Observe(time.Since(start).Seconds())
}

// ResolveDataPath turns a data URI into the location DuckDB reads from:
// an absolute local directory, or the s3:// prefix itself.
func ResolveDataPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "s3://") {
		if BucketFromURI(uri) == "" {
			return "", fmt.Errorf("s3 URI %q has no bucket", uri)
		}
		return strings.TrimSuffix(uri, "/"), nil
	}
	path := strings.TrimPrefix(uri, "file://")
	if path == "" {
		return "", fmt.Errorf("data URI path cannot be empty")
	}
	if strings.Contains(path, "://") {
		return "", fmt.Errorf("data URI must be file:// or s3://, got %q", uri)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %q: %w", path, err)
	}
	return abs, nil
}

func JoinDataPath(dir, name string) string {
	if strings.HasPrefix(dir, "s3://") {
		return dir + "/" + name
	}
	return filepath.Join(dir, name)
}
