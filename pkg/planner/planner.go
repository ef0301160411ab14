package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/malbeclabs/scichart/pkg/plan"
)

type Config struct {
	Logger      *slog.Logger
	Interpreter Interpreter
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Interpreter == nil {
		return fmt.Errorf("interpreter is required")
	}
	return nil
}

// Planner resolves free text plus an optional previous plan into a complete,
// consistent plan.
type Planner struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Planner{log: cfg.Logger, cfg: cfg}, nil
}

// Resolve runs the interpretation call and then applies, in order: chart type
// fallback, inheritance from prev, defaults, text overrides, and repair. Only
// the interpretation call can fail.
func (p *Planner) Resolve(ctx context.Context, userText string, prev plan.Raw) (*plan.Plan, error) {
	prev = prev.Canonical()

	interpreted, err := p.cfg.Interpreter.Interpret(ctx, userText, prev)
	if err != nil {
		if !errors.Is(err, ErrInterpretation) {
			err = fmt.Errorf("%w: %w", ErrInterpretation, err)
		}
		return nil, err
	}

	merged := p.merge(interpreted.Canonical(), prev)
	applyOverrides(userText, merged)
	resolved := normalize(merged)

	p.log.Debug("planner: resolved plan",
		"chartType", resolved.ChartType,
		"yearFrom", resolved.YearFrom,
		"yearTo", resolved.YearTo,
		"compare", resolved.Compare,
		"mark", resolved.Mark,
	)
	return resolved, nil
}

// merge layers the interpreted object over prev field by field and fills
// defaults for whatever is still missing.
func (p *Planner) merge(interpreted, prev plan.Raw) plan.Raw {
	out := interpreted.Clone()
	if out == nil {
		out = plan.Raw{}
	}

	out[plan.KeyChartType] = string(p.chartType(interpreted, prev))

	for _, key := range plan.InheritedKeys {
		if _, ok := out.Lookup(key); ok {
			continue
		}
		if v, ok := prev.Lookup(key); ok {
			out[key] = v
		}
	}

	for key, def := range defaults() {
		if _, ok := out.Lookup(key); !ok {
			out[key] = def
		}
	}
	return out
}

func (p *Planner) chartType(interpreted, prev plan.Raw) plan.ChartType {
	if v, ok := interpreted.Lookup(plan.KeyChartType); ok {
		if s, ok := v.(string); ok {
			if ct, ok := plan.ParseChartType(s); ok {
				return ct
			}
			if strings.TrimSpace(s) != "" {
				p.log.Warn("planner: ignoring unrecognized chart type", "chartType", s)
			}
		}
	}
	if v, ok := prev.Lookup(plan.KeyChartType); ok {
		if s, ok := v.(string); ok {
			if ct, ok := plan.ParseChartType(s); ok {
				return ct
			}
		}
	}
	return plan.DefaultChartType
}

func defaults() plan.Raw {
	return plan.Raw{
		plan.KeyYearFrom:      plan.DefaultYearFrom,
		plan.KeyYearTo:        plan.DefaultYearTo,
		plan.KeyLabelLevel:    plan.DefaultLabelLevel,
		plan.KeyLabelScoreMin: plan.DefaultLabelScoreMin,
		plan.KeyTopK:          plan.DefaultTopK,
		plan.KeyMark:          string(plan.DefaultMark),
		plan.KeyCompare:       false,
	}
}

// normalize turns a merged raw plan into a typed plan, repairing every field
// that is blank, mistyped, out of range or inconsistent.
func normalize(r plan.Raw) *plan.Plan {
	out := plan.Default()

	if v, ok := r.Lookup(plan.KeyChartType); ok {
		if s, ok := v.(string); ok {
			if ct, ok := plan.ParseChartType(s); ok {
				out.ChartType = ct
			}
		}
	}

	out.Doctype = toOptionalString(r[plan.KeyDoctype])
	out.Color = toOptionalString(r[plan.KeyColor])

	if s, ok := r[plan.KeyMark].(string); ok {
		if m := plan.Mark(strings.ToLower(strings.TrimSpace(s))); m.Valid() {
			out.Mark = m
		}
	}

	out.YearFrom = yearOr(r[plan.KeyYearFrom], plan.DefaultYearFrom)
	out.YearTo = yearOr(r[plan.KeyYearTo], plan.DefaultYearTo)
	if out.YearFrom > out.YearTo {
		out.YearFrom, out.YearTo = out.YearTo, out.YearFrom
	}

	out.LabelLevel = intOr(r[plan.KeyLabelLevel], plan.DefaultLabelLevel)
	if out.LabelLevel < 0 {
		out.LabelLevel = plan.DefaultLabelLevel
	}

	if f, ok := toFloat(r[plan.KeyLabelScoreMin]); ok {
		out.LabelScoreMin = min(max(f, 0), 1)
	}

	out.TopK = intOr(r[plan.KeyTopK], plan.DefaultTopK)
	if out.TopK <= 0 {
		out.TopK = plan.DefaultTopK
	}

	if toBool(r[plan.KeyCompare]) {
		from, okFrom := toYear(r[plan.KeyCompareYearFrom])
		to, okTo := toYear(r[plan.KeyCompareYearTo])
		if okFrom && okTo {
			if from > to {
				from, to = to, from
			}
			out.Compare = true
			out.CompareYearFrom = &from
			out.CompareYearTo = &to
		}
	}
	return out
}

// toYear coerces v to a year inside the corpus range.
func toYear(v any) (int, bool) {
	y, ok := toInt(v)
	if !ok || !plan.YearInRange(y) {
		return 0, false
	}
	return y, true
}

func yearOr(v any, def int) int {
	if y, ok := toYear(v); ok {
		return y
	}
	return def
}

func intOr(v any, def int) int {
	if i, ok := toInt(v); ok {
		return i
	}
	return def
}
