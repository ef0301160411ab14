package planner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/malbeclabs/scichart/pkg/plan"
	"github.com/malbeclabs/scichart/pkg/planner"
	"github.com/stretchr/testify/require"
)

func newPlanner(t *testing.T, interp planner.Interpreter) *planner.Planner {
	t.Helper()
	p, err := planner.New(planner.Config{Logger: logger, Interpreter: interp})
	require.NoError(t, err)
	return p
}

func comparePlan() *plan.Plan {
	p := plan.Default()
	p.ChartType = plan.ChartByLabel
	p.YearFrom, p.YearTo = 2015, 2017
	p.Doctype = plan.String("article")
	p.LabelLevel = 2
	p.LabelScoreMin = 0.5
	p.TopK = 10
	p.Color = plan.String("teal")
	p.Compare = true
	p.CompareYearFrom = plan.Int(2018)
	p.CompareYearTo = plan.Int(2020)
	return p
}

func TestChart_Planner_ConfigValidate(t *testing.T) {
	t.Parallel()

	_, err := planner.New(planner.Config{Interpreter: returning(nil)})
	require.ErrorContains(t, err, "logger is required")
	_, err = planner.New(planner.Config{Logger: logger})
	require.ErrorContains(t, err, "interpreter is required")
}

func TestChart_Planner_Resolve_LineChartScenario(t *testing.T) {
	t.Parallel()

	p := newPlanner(t, returning(plan.Raw{
		"chart_type": "by_time",
		"year_from":  2021.0,
		"year_to":    2023.0,
		"mark":       "line",
		"doctype":    nil,
	}))

	got, err := p.Resolve(context.Background(), "show papers from 2021 to 2023 as a line chart", nil)
	require.NoError(t, err)

	want := plan.Default()
	want.YearFrom, want.YearTo = 2021, 2023
	want.Mark = plan.MarkLine
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestChart_Planner_Resolve_StyleOnlyEditInheritsEverything(t *testing.T) {
	t.Parallel()

	prev := comparePlan()
	tests := []struct {
		name        string
		text        string
		interpreted plan.Raw
		edit        func(p *plan.Plan)
	}{
		{
			name:        "mark",
			text:        "make it a line chart",
			interpreted: plan.Raw{"chart_type": nil, "mark": "line"},
			edit:        func(p *plan.Plan) { p.Mark = plan.MarkLine },
		},
		{
			name:        "color",
			text:        "make it crimson",
			interpreted: plan.Raw{"color": "crimson", "compare": nil, "year_from": nil},
			edit:        func(p *plan.Plan) { p.Color = plan.String("crimson") },
		},
		{
			name:        "nothing returned",
			text:        "same again",
			interpreted: plan.Raw{},
			edit:        func(p *plan.Plan) {},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlanner(t, returning(tt.interpreted))
			got, err := p.Resolve(context.Background(), tt.text, prev.Raw())
			require.NoError(t, err)

			want := comparePlan()
			tt.edit(want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("plan mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChart_Planner_Resolve_CompareOverrideWins(t *testing.T) {
	t.Parallel()

	interpretations := []plan.Raw{
		{"chart_type": "by_time"},
		{"chart_type": "by_time", "year_from": 1999, "year_to": 2001, "compare": false},
		{"chart_type": "by_time", "compare": true, "compare_year_from": 1990, "compare_year_to": 1991},
	}
	for _, interpreted := range interpretations {
		p := newPlanner(t, returning(interpreted))
		got, err := p.Resolve(context.Background(), "now compare 2020-2022 vs 2023-2024", nil)
		require.NoError(t, err)
		require.True(t, got.Compare)
		require.Equal(t, 2020, got.YearFrom)
		require.Equal(t, 2022, got.YearTo)
		require.Equal(t, plan.Int(2023), got.CompareYearFrom)
		require.Equal(t, plan.Int(2024), got.CompareYearTo)
	}
}

func TestChart_Planner_Resolve_FilterOverridesBeatInheritance(t *testing.T) {
	t.Parallel()

	prev := comparePlan()
	p := newPlanner(t, returning(plan.Raw{"top_k": 99, "label_level": 4, "doctype": "preprint"}))

	got, err := p.Resolve(context.Background(), "top_k: 15, level 1, score 0.2, only journal papers", prev.Raw())
	require.NoError(t, err)
	require.Equal(t, 15, got.TopK)
	require.Equal(t, 1, got.LabelLevel)
	require.InDelta(t, 0.2, got.LabelScoreMin, 1e-9)
	require.Equal(t, plan.String("journal"), got.Doctype)
	require.Equal(t, plan.ChartByLabel, got.ChartType)
	require.True(t, got.Compare)
}

func TestChart_Planner_Resolve_CompareAllOrNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		interpreted plan.Raw
		prev        plan.Raw
		wantCompare bool
	}{
		{"missing upper bound", plan.Raw{"compare": true, "compare_year_from": 2010}, nil, false},
		{"unparseable bound", plan.Raw{"compare": true, "compare_year_from": 2010, "compare_year_to": "soon"}, nil, false},
		{"bounds without flag", plan.Raw{"compare": false, "compare_year_from": 2010, "compare_year_to": 2012}, nil, false},
		{"string flag", plan.Raw{"compare": "true", "compare_year_from": "2010", "compare_year_to": 2012.0}, nil, true},
		{"unrecognized flag", plan.Raw{"compare": "yes please", "compare_year_from": 2010, "compare_year_to": 2012}, nil, false},
		{"numeric flag", plan.Raw{"compare": 1.0, "compare_year_from": 2010, "compare_year_to": 2012}, nil, true},
		{"flag turned off over inherited compare", plan.Raw{"compare": false}, comparePlan().Raw(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlanner(t, returning(tt.interpreted))
			got, err := p.Resolve(context.Background(), "", tt.prev)
			require.NoError(t, err)
			require.Equal(t, tt.wantCompare, got.Compare)
			if tt.wantCompare {
				require.NotNil(t, got.CompareYearFrom)
				require.NotNil(t, got.CompareYearTo)
			} else {
				require.Nil(t, got.CompareYearFrom)
				require.Nil(t, got.CompareYearTo)
			}
			require.NoError(t, got.Validate())
		})
	}
}

func TestChart_Planner_Resolve_Idempotent(t *testing.T) {
	t.Parallel()

	withColor := plan.Default()
	withColor.Color = plan.String("#ff0000")
	withColor.Mark = plan.MarkArea

	for _, full := range []*plan.Plan{plan.Default(), comparePlan(), withColor} {
		for _, interp := range []*mockInterpreter{returning(plan.Raw{}), returning(full.Raw())} {
			p := newPlanner(t, interp)
			got, err := p.Resolve(context.Background(), "", full.Raw())
			require.NoError(t, err)
			if diff := cmp.Diff(full, got); diff != "" {
				t.Errorf("plan drifted (-want +got):\n%s", diff)
			}
		}
	}
}

func TestChart_Planner_Resolve_MarkValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mark any
		want plan.Mark
	}{
		{"pie", plan.MarkBar},
		{"scatter", plan.MarkBar},
		{"", plan.MarkBar},
		{"   ", plan.MarkBar},
		{42, plan.MarkBar},
		{" Line ", plan.MarkLine},
		{"area", plan.MarkArea},
	}
	for _, tt := range tests {
		p := newPlanner(t, returning(plan.Raw{"mark": tt.mark}))
		got, err := p.Resolve(context.Background(), "restyle", nil)
		require.NoError(t, err)
		require.Equal(t, tt.want, got.Mark, "mark %v", tt.mark)
	}
}

func TestChart_Planner_Resolve_ChartTypeFallback(t *testing.T) {
	t.Parallel()

	labelPrev := plan.Raw{"chart_type": "papers_by_field"}
	tests := []struct {
		name        string
		interpreted plan.Raw
		prev        plan.Raw
		want        plan.ChartType
	}{
		{"absent without prev", plan.Raw{}, nil, plan.ChartByTime},
		{"null with prev", plan.Raw{"chart_type": nil}, labelPrev, plan.ChartByLabel},
		{"empty with prev", plan.Raw{"chart_type": "  "}, labelPrev, plan.ChartByLabel},
		{"unrecognized without prev", plan.Raw{"chart_type": "pie_chart"}, nil, plan.ChartByTime},
		{"unrecognized with prev", plan.Raw{"chart_type": "pie_chart"}, labelPrev, plan.ChartByLabel},
		{"legacy alias", plan.Raw{"chart_type": "papers_by_field"}, nil, plan.ChartByLabel},
		{"interpreted wins", plan.Raw{"chart_type": "by_time"}, labelPrev, plan.ChartByTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlanner(t, returning(tt.interpreted))
			got, err := p.Resolve(context.Background(), "", tt.prev)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.ChartType)
		})
	}
}

func TestChart_Planner_Resolve_RepairsMalformedFields(t *testing.T) {
	t.Parallel()

	p := newPlanner(t, returning(plan.Raw{
		"year_from":       "abc",
		"year_to":         "2019",
		"label_level":     -3,
		"field_score_min": 1.7,
		"top_k":           0,
		"doctype":         "   ",
		"color":           "",
		"mark":            nil,
	}))
	got, err := p.Resolve(context.Background(), "", nil)
	require.NoError(t, err)

	want := plan.Default()
	want.YearFrom, want.YearTo = 2019, 2020
	want.LabelScoreMin = 1
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, got.Validate())
}

func TestChart_Planner_Resolve_RepairsOutOfRangeYears(t *testing.T) {
	t.Parallel()

	huge := plan.Raw{
		"year_from":         -2_000_000_000,
		"year_to":           2_000_000_000,
		"compare":           true,
		"compare_year_from": 2020,
		"compare_year_to":   float64(plan.MaxYear + 1),
	}

	t.Run("from the interpreter", func(t *testing.T) {
		t.Parallel()
		p := newPlanner(t, returning(huge.Clone()))
		got, err := p.Resolve(context.Background(), "", nil)
		require.NoError(t, err)
		if diff := cmp.Diff(plan.Default(), got); diff != "" {
			t.Errorf("plan mismatch (-want +got):\n%s", diff)
		}
		require.NoError(t, got.Validate())
	})

	t.Run("from the previous plan", func(t *testing.T) {
		t.Parallel()
		p := newPlanner(t, returning(plan.Raw{}))
		got, err := p.Resolve(context.Background(), "", huge.Clone())
		require.NoError(t, err)
		if diff := cmp.Diff(plan.Default(), got); diff != "" {
			t.Errorf("plan mismatch (-want +got):\n%s", diff)
		}
		require.NoError(t, got.Validate())
	})

	t.Run("one bad bound keeps the other", func(t *testing.T) {
		t.Parallel()
		p := newPlanner(t, returning(plan.Raw{"year_from": 1999, "year_to": 3000}))
		got, err := p.Resolve(context.Background(), "", nil)
		require.NoError(t, err)
		require.Equal(t, 1999, got.YearFrom)
		require.Equal(t, plan.DefaultYearTo, got.YearTo)
	})

	t.Run("corpus edges are kept", func(t *testing.T) {
		t.Parallel()
		p := newPlanner(t, returning(plan.Raw{"year_from": plan.MinYear, "year_to": plan.MaxYear}))
		got, err := p.Resolve(context.Background(), "", nil)
		require.NoError(t, err)
		require.Equal(t, plan.MinYear, got.YearFrom)
		require.Equal(t, plan.MaxYear, got.YearTo)
	})
}

func TestChart_Planner_Resolve_SwapsReversedWindows(t *testing.T) {
	t.Parallel()

	p := newPlanner(t, returning(plan.Raw{
		"year_from":         2024,
		"year_to":           2020,
		"compare":           true,
		"compare_year_from": 2019,
		"compare_year_to":   2015,
		"label_score_min":   -0.2,
	}))
	got, err := p.Resolve(context.Background(), "", nil)
	require.NoError(t, err)

	want := plan.Default()
	want.Compare = true
	want.CompareYearFrom, want.CompareYearTo = plan.Int(2015), plan.Int(2019)
	want.LabelScoreMin = 0
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, got.Validate())
}

func TestChart_Planner_Resolve_AcceptsLegacyPrevKeys(t *testing.T) {
	t.Parallel()

	p := newPlanner(t, returning(plan.Raw{}))
	got, err := p.Resolve(context.Background(), "", plan.Raw{
		"chart_type":      "papers_by_field",
		"field_level":     2,
		"field_score_min": 0.6,
		"top_k":           12,
	})
	require.NoError(t, err)
	require.Equal(t, plan.ChartByLabel, got.ChartType)
	require.Equal(t, 2, got.LabelLevel)
	require.InDelta(t, 0.6, got.LabelScoreMin, 1e-9)
	require.Equal(t, 12, got.TopK)
}

func TestChart_Planner_Resolve_InterpretationFailureIsFatal(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p := newPlanner(t, &mockInterpreter{
		InterpretFunc: func(context.Context, string, plan.Raw) (plan.Raw, error) {
			return nil, boom
		},
	})
	got, err := p.Resolve(context.Background(), "papers by year", nil)
	require.Nil(t, got)
	require.ErrorIs(t, err, planner.ErrInterpretation)
	require.ErrorIs(t, err, boom)
}

func TestChart_Planner_Resolve_PassesPrevToInterpreter(t *testing.T) {
	t.Parallel()

	var seenText string
	var seenPrev plan.Raw
	p := newPlanner(t, &mockInterpreter{
		InterpretFunc: func(_ context.Context, text string, prev plan.Raw) (plan.Raw, error) {
			seenText, seenPrev = text, prev
			return plan.Raw{}, nil
		},
	})
	_, err := p.Resolve(context.Background(), "make it red", plan.Raw{"field_level": 3})
	require.NoError(t, err)
	require.Equal(t, "make it red", seenText)
	require.Equal(t, 3, seenPrev[plan.KeyLabelLevel])
}
