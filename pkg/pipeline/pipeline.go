// Package pipeline sequences one chart turn: resolve the plan, aggregate it
// against the corpus backend, and render the chart descriptor.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/malbeclabs/scichart/pkg/aggregator"
	"github.com/malbeclabs/scichart/pkg/metrics"
	"github.com/malbeclabs/scichart/pkg/plan"
	"github.com/malbeclabs/scichart/pkg/render"
)

// Resolver turns free text plus the previous plan into a resolved plan.
type Resolver interface {
	Resolve(ctx context.Context, userText string, prev plan.Raw) (*plan.Plan, error)
}

// Aggregator executes a resolved plan.
type Aggregator interface {
	Aggregate(ctx context.Context, p *plan.Plan) (*aggregator.Result, error)
}

type Config struct {
	Logger     *slog.Logger
	Resolver   Resolver
	Aggregator Aggregator
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Resolver == nil {
		return fmt.Errorf("resolver is required")
	}
	if c.Aggregator == nil {
		return fmt.Errorf("aggregator is required")
	}
	return nil
}

// Result is everything a client needs to draw the chart and continue the
// conversation. Plan is sent back as prev on the next turn.
type Result struct {
	Caption string           `json:"caption"`
	Plan    *plan.Plan       `json:"plan"`
	Rows    []aggregator.Row `json:"rows"`
	Chart   *render.Spec     `json:"chart_descriptor"`
}

// Pipeline holds no per-turn state and is safe for concurrent use.
type Pipeline struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{log: cfg.Logger, cfg: cfg}, nil
}

// Run executes one turn. Errors from any stage are returned unchanged for
// the caller to classify with ErrorType.
func (p *Pipeline) Run(ctx context.Context, userText string, prev plan.Raw) (*Result, error) {
	start := time.Now()

	resolved, err := p.cfg.Resolver.Resolve(ctx, userText, prev)
	metrics.StageDuration.WithLabelValues("resolve").Observe(time.Since(start).Seconds())
	if err != nil {
		p.finish(err)
		return nil, err
	}

	res, err := p.runPlan(ctx, resolved)
	p.finish(err)
	if err != nil {
		return nil, err
	}
	p.log.Info("pipeline: turn complete", "chartType", resolved.ChartType, "compare", resolved.Compare, "rows", len(res.Rows), "duration", time.Since(start))
	return res, nil
}

// RunPlan aggregates and renders an explicit plan without an interpretation
// call. An unknown chart type is reported as unsupported; any other invalid
// field fails with plan.ErrInvalidPlan.
func (p *Pipeline) RunPlan(ctx context.Context, resolved *plan.Plan) (*Result, error) {
	if !resolved.ChartType.Valid() {
		err := fmt.Errorf("%w: %q", aggregator.ErrUnsupportedChartType, resolved.ChartType)
		p.finish(err)
		return nil, err
	}
	if err := resolved.Validate(); err != nil {
		p.finish(err)
		return nil, err
	}
	res, err := p.runPlan(ctx, resolved)
	p.finish(err)
	return res, err
}

func (p *Pipeline) runPlan(ctx context.Context, resolved *plan.Plan) (*Result, error) {
	agg, err := p.cfg.Aggregator.Aggregate(ctx, resolved)
	if err != nil {
		return nil, err
	}

	renderStart := time.Now()
	caption, spec, err := render.Render(agg.ChartType, agg.Plan, agg.Rows)
	metrics.StageDuration.WithLabelValues("render").Observe(time.Since(renderStart).Seconds())
	if err != nil {
		return nil, err
	}

	rows := agg.Rows
	if rows == nil {
		rows = []aggregator.Row{}
	}
	return &Result{Caption: caption, Plan: agg.Plan, Rows: rows, Chart: spec}, nil
}

func (p *Pipeline) finish(err error) {
	outcome := "ok"
	if err != nil {
		outcome = ErrorType(err)
		p.log.Warn("pipeline: turn failed", "errorType", outcome, "error", err)
	}
	metrics.TurnsTotal.WithLabelValues(outcome).Inc()
}
