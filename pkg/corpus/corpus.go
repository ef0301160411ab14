package corpus

import (
	"context"
	"fmt"
)

// YearQuery selects papers published in [YearFrom, YearTo], optionally of
// one document type.
type YearQuery struct {
	YearFrom int
	YearTo   int
	Doctype  string
}

// FieldQuery additionally restricts to field assignments at Level with a
// relevance score of at least ScoreMin, keeping the TopK largest fields.
type FieldQuery struct {
	YearFrom int
	YearTo   int
	Doctype  string
	Level    int
	ScoreMin float64
	TopK     int
}

type YearCount struct {
	Year  int
	Count int64
}

type FieldCount struct {
	Label string
	Count int64
}

// Backend answers the two aggregation queries. PapersByYear may omit years
// with no papers. PapersByField returns at most TopK rows ordered by count
// descending.
type Backend interface {
	PapersByYear(ctx context.Context, q YearQuery) ([]YearCount, error)
	PapersByField(ctx context.Context, q FieldQuery) ([]FieldCount, error)
	Ping(ctx context.Context) error
}

func (q YearQuery) Validate() error {
	if q.YearFrom > q.YearTo {
		return fmt.Errorf("year_from %d is after year_to %d", q.YearFrom, q.YearTo)
	}
	return nil
}

func (q FieldQuery) Validate() error {
	if q.YearFrom > q.YearTo {
		return fmt.Errorf("year_from %d is after year_to %d", q.YearFrom, q.YearTo)
	}
	if q.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", q.TopK)
	}
	if q.Level < 0 {
		return fmt.Errorf("level must be non-negative, got %d", q.Level)
	}
	return nil
}

func (q YearQuery) Key() string {
	return fmt.Sprintf("year:%d:%d:%s", q.YearFrom, q.YearTo, q.Doctype)
}

func (q FieldQuery) Key() string {
	return fmt.Sprintf("field:%d:%d:%s:%d:%g:%d", q.YearFrom, q.YearTo, q.Doctype, q.Level, q.ScoreMin, q.TopK)
}
