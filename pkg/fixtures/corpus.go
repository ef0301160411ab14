package fixtures

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
)

// Raw table file names, matching the SciSciNet release layout.
const (
	AffiliationsFile = "sciscinet_paper_author_affiliation.parquet"
	PapersFile       = "sciscinet_papers.parquet"
	PaperFieldsFile  = "sciscinet_paperfields.parquet"
	FieldsFile       = "sciscinet_fields.parquet"
)

// HomeInstitution is the institution id Demo papers are affiliated with;
// OtherInstitution papers are dropped by a derived build for HomeInstitution.
const (
	HomeInstitution  = "I107672454"
	OtherInstitution = "I000000001"
)

type Paper struct {
	ID          int64
	Year        int
	Doctype     string
	Institution string
	Citations   int64
}

type Field struct {
	ID    int64
	Name  string
	Level int
}

type Assignment struct {
	PaperID int64
	FieldID int64
	Score   float64
}

// Corpus is a small raw SciSciNet-shaped dataset.
type Corpus struct {
	Papers      []Paper
	Fields      []Field
	Assignments []Assignment
}

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteRaw writes the corpus as the four raw Parquet tables under dir.
func (c *Corpus) WriteRaw(ctx context.Context, db Execer, dir string) error {
	if len(c.Papers) == 0 || len(c.Fields) == 0 || len(c.Assignments) == 0 {
		return fmt.Errorf("corpus must have papers, fields and assignments")
	}
	tables := []struct {
		name string
		file string
	}{
		{"affiliations", AffiliationsFile},
		{"papers", PapersFile},
		{"paperfields", PaperFieldsFile},
		{"fields", FieldsFile},
	}
	for _, t := range tables {
		query, err := renderNamed(t.name, struct {
			Path   string
			Corpus *Corpus
		}{Path: joinPath(dir, t.file), Corpus: c})
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to write %s: %w", t.file, err)
		}
	}
	return nil
}

func joinPath(dir, name string) string {
	if strings.HasPrefix(dir, "s3://") {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}

var demoFields = []Field{
	{ID: 1, Name: "Medicine", Level: 0},
	{ID: 2, Name: "Biology", Level: 0},
	{ID: 3, Name: "Computer science", Level: 0},
	{ID: 4, Name: "Psychology", Level: 0},
	{ID: 11, Name: "Oncology", Level: 1},
	{ID: 12, Name: "Neuroscience", Level: 1},
	{ID: 13, Name: "Machine learning", Level: 1},
	{ID: 14, Name: "Genetics", Level: 1},
	{ID: 15, Name: "Epidemiology", Level: 1},
}

var demoDoctypes = []string{"article", "article", "preprint", "conference", ""}

// Demo returns a deterministic corpus covering [yearFrom, yearTo]. Year y has
// y-yearFrom+2 papers; every fifth paper belongs to OtherInstitution.
func Demo(yearFrom, yearTo int) *Corpus {
	c := &Corpus{Fields: demoFields}
	var id int64
	for _, year := range seq(yearFrom, yearTo) {
		for i := range seq(0, year-yearFrom+1) {
			id++
			institution := HomeInstitution
			if id%5 == 0 {
				institution = OtherInstitution
			}
			c.Papers = append(c.Papers, Paper{
				ID:          id,
				Year:        year,
				Doctype:     demoDoctypes[int(id)%len(demoDoctypes)],
				Institution: institution,
				Citations:   id * 3,
			})
			top := demoFields[int(id)%4]
			sub := demoFields[4+(int(id)+i)%5]
			c.Assignments = append(c.Assignments,
				Assignment{PaperID: id, FieldID: top.ID, Score: 0.9},
				Assignment{PaperID: id, FieldID: sub.ID, Score: 0.2 + float64(int(id)%7)/10},
			)
		}
	}
	return c
}
