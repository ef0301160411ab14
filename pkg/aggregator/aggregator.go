package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/malbeclabs/scichart/pkg/corpus"
	"github.com/malbeclabs/scichart/pkg/metrics"
	"github.com/malbeclabs/scichart/pkg/plan"
)

const (
	GroupA = "A"
	GroupB = "B"

	// Minimum candidate pool per window when ranking labels across two windows.
	minComparePool    = 200
	comparePoolFactor = 5
)

var (
	ErrUnsupportedChartType = errors.New("unsupported chart type")
	ErrBackend              = errors.New("backend query failed")
)

// Row is one aggregated bar/point. Group is set only in compare mode.
type Row struct {
	Group    string `json:"group,omitempty"`
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type Result struct {
	ChartType plan.ChartType `json:"chart_type"`
	Plan      *plan.Plan     `json:"plan"`
	Rows      []Row          `json:"rows"`
}

type Config struct {
	Logger  *slog.Logger
	Backend corpus.Backend
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Backend == nil {
		return fmt.Errorf("backend is required")
	}
	return nil
}

type Aggregator struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{log: cfg.Logger, cfg: cfg}, nil
}

// Aggregate executes p against the backend. Backend errors are wrapped with
// ErrBackend and never retried.
func (a *Aggregator) Aggregate(ctx context.Context, p *plan.Plan) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("aggregate").Observe(time.Since(start).Seconds())
	}()

	var (
		rows []Row
		err  error
	)
	switch p.ChartType {
	case plan.ChartByTime:
		rows, err = a.byTime(ctx, p)
	case plan.ChartByLabel:
		rows, err = a.byLabel(ctx, p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChartType, p.ChartType)
	}
	if err != nil {
		return nil, err
	}

	a.log.Debug("aggregator: aggregated plan", "chartType", p.ChartType, "compare", p.Compare, "rows", len(rows), "duration", time.Since(start))
	return &Result{ChartType: p.ChartType, Plan: p, Rows: rows}, nil
}

func (a *Aggregator) byTime(ctx context.Context, p *plan.Plan) ([]Row, error) {
	primary, err := a.years(ctx, p.Primary(), p.DoctypeFilter())
	if err != nil {
		return nil, err
	}
	secondary, ok := p.Secondary()
	if !ok {
		return primary, nil
	}
	other, err := a.years(ctx, secondary, p.DoctypeFilter())
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(primary)+len(other))
	for _, r := range primary {
		r.Group = GroupA
		rows = append(rows, r)
	}
	for _, r := range other {
		r.Group = GroupB
		rows = append(rows, r)
	}
	return rows, nil
}

func (a *Aggregator) years(ctx context.Context, w plan.Window, doctype string) ([]Row, error) {
	counts, err := a.cfg.Backend.PapersByYear(ctx, corpus.YearQuery{YearFrom: w.From, YearTo: w.To, Doctype: doctype})
	if err != nil {
		return nil, fmt.Errorf("%w: papers by year %s: %w", ErrBackend, w, err)
	}
	return Densify(w, counts), nil
}

func (a *Aggregator) byLabel(ctx context.Context, p *plan.Plan) ([]Row, error) {
	secondary, ok := p.Secondary()
	if !ok {
		counts, err := a.labels(ctx, p, p.Primary(), p.TopK)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(counts))
		for _, c := range counts {
			rows = append(rows, Row{Category: c.Label, Count: c.Count})
		}
		return rows, nil
	}

	pool := max(p.TopK*comparePoolFactor, minComparePool)
	first, err := a.labels(ctx, p, p.Primary(), pool)
	if err != nil {
		return nil, err
	}
	second, err := a.labels(ctx, p, secondary, pool)
	if err != nil {
		return nil, err
	}
	countsA, countsB := labelCounts(first), labelCounts(second)
	kept := RankUnion(countsA, countsB, p.TopK)

	rows := make([]Row, 0, 2*len(kept))
	for _, label := range kept {
		rows = append(rows, Row{Group: GroupA, Category: label, Count: countsA[label]})
	}
	for _, label := range kept {
		rows = append(rows, Row{Group: GroupB, Category: label, Count: countsB[label]})
	}
	return rows, nil
}

func (a *Aggregator) labels(ctx context.Context, p *plan.Plan, w plan.Window, topK int) ([]corpus.FieldCount, error) {
	counts, err := a.cfg.Backend.PapersByField(ctx, corpus.FieldQuery{
		YearFrom: w.From,
		YearTo:   w.To,
		Doctype:  p.DoctypeFilter(),
		Level:    p.LabelLevel,
		ScoreMin: p.LabelScoreMin,
		TopK:     topK,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: papers by field %s: %w", ErrBackend, w, err)
	}
	return counts, nil
}

// Densify returns one row per year in w, ascending, with zero counts for
// years missing from counts.
func Densify(w plan.Window, counts []corpus.YearCount) []Row {
	if w.From > w.To {
		return nil
	}
	byYear := make(map[int]int64, len(counts))
	for _, c := range counts {
		byYear[c.Year] += c.Count
	}
	rows := make([]Row, 0, w.To-w.From+1)
	for y := w.From; y <= w.To; y++ {
		rows = append(rows, Row{Category: strconv.Itoa(y), Count: byYear[y]})
	}
	return rows
}

func labelCounts(counts []corpus.FieldCount) map[string]int64 {
	m := make(map[string]int64, len(counts))
	for _, c := range counts {
		m[c.Label] += c.Count
	}
	return m
}
