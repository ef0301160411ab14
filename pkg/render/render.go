package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/malbeclabs/scichart/pkg/aggregator"
	"github.com/malbeclabs/scichart/pkg/plan"
)

const (
	selectionParam = "pick"

	selectedOpacity   = 1
	unselectedOpacity = 0.35
)

// Row field names as they appear in the data values.
const (
	fieldGroup    = "group"
	fieldCategory = "category"
	fieldCount    = "count"
)

// Render builds the chart descriptor and caption for an aggregated plan.
// The caption is derived from the plan alone.
func Render(chartType plan.ChartType, p *plan.Plan, rows []aggregator.Row) (string, *Spec, error) {
	var (
		x           FieldDef
		description string
	)
	switch chartType {
	case plan.ChartByTime:
		x = FieldDef{Field: fieldCategory, Type: "ordinal", Title: "Year"}
		description = "Number of papers by year"
	case plan.ChartByLabel:
		x = FieldDef{Field: fieldCategory, Type: "nominal", Sort: "-y", Title: "Field"}
		description = "Number of papers by field"
	default:
		return "", nil, fmt.Errorf("%w: %q", aggregator.ErrUnsupportedChartType, chartType)
	}

	secondary, compare := p.Secondary()

	mark := Mark{Type: string(p.Mark), Tooltip: true}
	if !compare && p.Color != nil {
		mark.Color = *p.Color
	}

	enc := Encoding{
		X: x,
		Y: FieldDef{Field: fieldCount, Type: "quantitative", Title: "Papers"},
		Opacity: Conditional{
			Condition: Condition{Param: selectionParam, Value: selectedOpacity},
			Value:     unselectedOpacity,
		},
	}
	pick := []string{fieldCategory}
	if compare {
		enc.Color = &FieldDef{Field: fieldGroup, Type: "nominal", Title: "Group"}
		enc.Tooltip = []FieldDef{{Field: fieldGroup}, {Field: fieldCategory}, {Field: fieldCount}}
		pick = []string{fieldGroup, fieldCategory}
	} else {
		enc.Tooltip = []FieldDef{{Field: fieldCategory}, {Field: fieldCount}}
	}

	if rows == nil {
		rows = []aggregator.Row{}
	}
	spec := &Spec{
		Schema:      SchemaURL,
		Description: description,
		Data:        Data{Values: rows},
		Params:      []Param{{Name: selectionParam, Select: Selection{Type: "point", Fields: pick}}},
		Mark:        mark,
		Encoding:    enc,
	}

	var windows string
	if compare {
		windows = fmt.Sprintf("A=%s, B=%s", p.Primary(), secondary)
	} else {
		windows = p.Primary().String()
	}
	var caption string
	switch chartType {
	case plan.ChartByTime:
		caption = fmt.Sprintf("Papers by year (%s).", windows)
	case plan.ChartByLabel:
		caption = fmt.Sprintf("Papers by field (%s, level=%d, score>=%s, top_k=%d).",
			windows, p.LabelLevel, formatScore(p.LabelScoreMin), p.TopK)
	}
	return caption, spec, nil
}

// formatScore prints the shortest decimal form, keeping one fractional digit
// for whole numbers (1 -> "1.0").
func formatScore(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
