package duck

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/malbeclabs/scichart/pkg/plan"
)

// Raw SciSciNet table files expected under the raw URI.
const (
	RawAffiliationsFile = "sciscinet_paper_author_affiliation.parquet"
	RawPapersFile       = "sciscinet_papers.parquet"
	RawPaperFieldsFile  = "sciscinet_paperfields.parquet"
	RawFieldsFile       = "sciscinet_fields.parquet"
)

const (
	DefaultBuildYearMin = plan.MinYear
	DefaultBuildYearMax = plan.MaxYear
)

// DefaultInstitutionIDs are the Dartmouth-affiliated OpenAlex institutions.
var DefaultInstitutionIDs = []string{
	"I1289422878", // Dartmouth-Hitchcock Medical Center
	"I4210144121", // Children's Hospital at Dartmouth-Hitchcock
	"I4390039367", // Dartmouth Cancer Center
	"I126688049",  // The Dartmouth Institute for Health Policy and Clinical Practice
	"I4390039337", // Dartmouth Health
	"I107672454",  // Dartmouth College
}

type BuildConfig struct {
	Logger *slog.Logger
	DB     *DB

	RawURI         string
	OutURI         string
	InstitutionIDs []string
	YearMin        int
	YearMax        int
}

func (c *BuildConfig) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.RawURI == "" {
		return fmt.Errorf("raw URI is required")
	}
	if c.OutURI == "" {
		return fmt.Errorf("output URI is required")
	}
	if len(c.InstitutionIDs) == 0 {
		c.InstitutionIDs = DefaultInstitutionIDs
	}
	if c.YearMin == 0 {
		c.YearMin = DefaultBuildYearMin
	}
	if c.YearMax == 0 {
		c.YearMax = DefaultBuildYearMax
	}
	if c.YearMin > c.YearMax {
		return fmt.Errorf("year min %d is after year max %d", c.YearMin, c.YearMax)
	}
	return nil
}

type BuildResult struct {
	Files    []string
	Papers   int64
	Duration time.Duration
}

// BuildDerived extracts the institution's papers from the raw tables and
// writes the derived Parquet files the backend reads.
func BuildDerived(ctx context.Context, cfg BuildConfig) (*BuildResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rawDir, err := ResolveDataPath(cfg.RawURI)
	if err != nil {
		return nil, fmt.Errorf("invalid raw URI: %w", err)
	}
	outDir, err := ResolveDataPath(cfg.OutURI)
	if err != nil {
		return nil, fmt.Errorf("invalid output URI: %w", err)
	}
	if !strings.HasPrefix(outDir, "s3://") {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	raw := func(name string) string { return quote(JoinDataPath(rawDir, name)) }
	out := func(name string) string { return quote(JoinDataPath(outDir, name)) }

	ids := make([]string, len(cfg.InstitutionIDs))
	for i, id := range cfg.InstitutionIDs {
		ids[i] = quote(id)
	}

	steps := []struct {
		file  string
		query string
	}{
		{
			file: PaperIDsFile,
			query: fmt.Sprintf(`COPY (
				SELECT DISTINCT paperid
				FROM read_parquet(%s)
				WHERE institutionid IN (%s)
			) TO %s (FORMAT PARQUET)`, raw(RawAffiliationsFile), strings.Join(ids, ", "), out(PaperIDsFile)),
		},
		{
			file: PapersFile,
			query: fmt.Sprintf(`COPY (
				SELECT paperid, doi, year, doctype,
				       cited_by_count, citation_count, team_size, institution_count
				FROM read_parquet(%s)
				WHERE paperid IN (SELECT paperid FROM read_parquet(%s))
				  AND year BETWEEN %d AND %d
			) TO %s (FORMAT PARQUET)`, raw(RawPapersFile), out(PaperIDsFile), cfg.YearMin, cfg.YearMax, out(PapersFile)),
		},
		{
			file: PaperFieldsFile,
			query: fmt.Sprintf(`COPY (
				SELECT paperid, fieldid, score_openalex
				FROM read_parquet(%s)
				WHERE paperid IN (SELECT paperid FROM read_parquet(%s))
			) TO %s (FORMAT PARQUET)`, raw(RawPaperFieldsFile), out(PaperIDsFile), out(PaperFieldsFile)),
		},
		{
			file: FieldsFile,
			query: fmt.Sprintf(`COPY (
				SELECT fieldid, display_name, level
				FROM read_parquet(%s)
			) TO %s (FORMAT PARQUET)`, raw(RawFieldsFile), out(FieldsFile)),
		},
	}

	start := time.Now()
	result := &BuildResult{}
	for _, step := range steps {
		stepStart := time.Now()
		if _, err := cfg.DB.ExecContext(ctx, step.query); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", step.file, err)
		}
		path := JoinDataPath(outDir, step.file)
		result.Files = append(result.Files, path)
		cfg.Logger.Info("duck: wrote derived table", "file", path, "duration", time.Since(stepStart))
	}

	rows, err := cfg.DB.QueryContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM read_parquet(%s)", out(PapersFile)))
	if err != nil {
		return nil, fmt.Errorf("failed to count derived papers: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&result.Papers); err != nil {
			return nil, fmt.Errorf("failed to scan derived paper count: %w", err)
		}
	}
	result.Duration = time.Since(start)
	return result, nil
}
