package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/malbeclabs/scichart/pkg/corpus"
	"github.com/malbeclabs/scichart/pkg/metrics"
)

const (
	backendName = "clickhouse"

	defaultDialTimeout      = 10 * time.Second
	defaultMaxExecutionTime = 60
)

// Querier is the subset of a ClickHouse connection the backend uses.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Ping(ctx context.Context) error
}

type ConnConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Secure   bool
}

// Open connects to ClickHouse with the native protocol.
func Open(cfg ConnConfig) (driver.Conn, error) {
	opts := &clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": defaultMaxExecutionTime,
		},
		DialTimeout: defaultDialTimeout,
	}
	if cfg.Secure {
		opts.TLS = &tls.Config{}
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return conn, nil
}

type Config struct {
	Logger  *slog.Logger
	Querier Querier

	PapersTable      string
	PaperFieldsTable string
	FieldsTable      string
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Querier == nil {
		return fmt.Errorf("querier is required")
	}
	if c.PapersTable == "" {
		c.PapersTable = "papers"
	}
	if c.PaperFieldsTable == "" {
		c.PaperFieldsTable = "paperfields"
	}
	if c.FieldsTable == "" {
		c.FieldsTable = "fields"
	}
	return nil
}

// Backend answers corpus queries from the derived tables loaded into ClickHouse.
type Backend struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Backend{log: cfg.Logger, cfg: cfg}, nil
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
		SELECT toInt64(year) AS year, toInt64(count()) AS n_papers
		FROM %s
		WHERE %s
		GROUP BY year
		ORDER BY year`, b.cfg.PapersTable, where)

	start := time.Now()
	rows, err := b.cfg.Querier.Query(ctx, query, args...)
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
		SELECT f.display_name AS label, toInt64(uniqExact(p.paperid)) AS n_papers
		FROM %s AS p
		INNER JOIN %s AS pf ON p.paperid = pf.paperid
		INNER JOIN %s AS f ON pf.fieldid = f.fieldid
		WHERE %s
		GROUP BY label
		ORDER BY n_papers DESC, label ASC
		LIMIT %d`, b.cfg.PapersTable, b.cfg.PaperFieldsTable, b.cfg.FieldsTable, where, q.TopK)

	start := time.Now()
	rows, err := b.cfg.Querier.Query(ctx, query, args...)
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
	return out, nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.cfg.Querier.Ping(ctx)
}

func observe(query string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BackendQueriesTotal.WithLabelValues(backendName, query, status).Inc()
	metrics.BackendQueryDuration.WithLabelValues(backendName, query).Observe(time.Since(start).Seconds())
}
