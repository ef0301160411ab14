package plan

import (
	"errors"
	"fmt"
	"strings"
)

type ChartType string

const (
	ChartByTime  ChartType = "by_time"
	ChartByLabel ChartType = "by_label"
)

// ParseChartType accepts the canonical names plus the legacy papers_by_* aliases.
func ParseChartType(s string) (ChartType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ChartByTime), "papers_by_year":
		return ChartByTime, true
	case string(ChartByLabel), "papers_by_field":
		return ChartByLabel, true
	}
	return "", false
}

func (c ChartType) Valid() bool {
	return c == ChartByTime || c == ChartByLabel
}

type Mark string

const (
	MarkBar  Mark = "bar"
	MarkLine Mark = "line"
	MarkArea Mark = "area"
)

func (m Mark) Valid() bool {
	switch m {
	case MarkBar, MarkLine, MarkArea:
		return true
	}
	return false
}

const (
	DefaultChartType     = ChartByTime
	DefaultYearFrom      = 2020
	DefaultYearTo        = 2024
	DefaultLabelLevel    = 1
	DefaultLabelScoreMin = 0.3
	DefaultTopK          = 25
	DefaultMark          = MarkBar
)

// Years outside [MinYear, MaxYear] are outside the corpus.
const (
	MinYear = 1600
	MaxYear = 2025
)

func YearInRange(y int) bool {
	return y >= MinYear && y <= MaxYear
}

// Wire keys.
const (
	KeyChartType       = "chart_type"
	KeyYearFrom        = "year_from"
	KeyYearTo          = "year_to"
	KeyDoctype         = "doctype"
	KeyLabelLevel      = "label_level"
	KeyLabelScoreMin   = "label_score_min"
	KeyTopK            = "top_k"
	KeyColor           = "color"
	KeyMark            = "mark"
	KeyCompare         = "compare"
	KeyCompareYearFrom = "compare_year_from"
	KeyCompareYearTo   = "compare_year_to"
)

// InheritedKeys are the fields copied from a previous plan when the
// interpreted object leaves them absent or null. chart_type has its own
// fallback rule and is not listed.
var InheritedKeys = []string{
	KeyYearFrom,
	KeyYearTo,
	KeyDoctype,
	KeyLabelLevel,
	KeyLabelScoreMin,
	KeyTopK,
	KeyColor,
	KeyMark,
	KeyCompare,
	KeyCompareYearFrom,
	KeyCompareYearTo,
}

var ErrInvalidPlan = errors.New("invalid plan")

// Plan is the resolved chart intent threaded through aggregation and rendering.
type Plan struct {
	ChartType       ChartType `json:"chart_type"`
	YearFrom        int       `json:"year_from"`
	YearTo          int       `json:"year_to"`
	Doctype         *string   `json:"doctype"`
	LabelLevel      int       `json:"label_level"`
	LabelScoreMin   float64   `json:"label_score_min"`
	TopK            int       `json:"top_k"`
	Color           *string   `json:"color"`
	Mark            Mark      `json:"mark"`
	Compare         bool      `json:"compare"`
	CompareYearFrom *int      `json:"compare_year_from"`
	CompareYearTo   *int      `json:"compare_year_to"`
}

// Default returns the plan used when there is no prior context.
func Default() *Plan {
	return &Plan{
		ChartType:     DefaultChartType,
		YearFrom:      DefaultYearFrom,
		YearTo:        DefaultYearTo,
		LabelLevel:    DefaultLabelLevel,
		LabelScoreMin: DefaultLabelScoreMin,
		TopK:          DefaultTopK,
		Mark:          DefaultMark,
	}
}

type Window struct {
	From int
	To   int
}

func (w Window) String() string {
	return fmt.Sprintf("%d–%d", w.From, w.To)
}

func (p *Plan) Primary() Window {
	return Window{From: p.YearFrom, To: p.YearTo}
}

// Secondary returns the compare window, if compare mode is active.
func (p *Plan) Secondary() (Window, bool) {
	if !p.Compare || p.CompareYearFrom == nil || p.CompareYearTo == nil {
		return Window{}, false
	}
	return Window{From: *p.CompareYearFrom, To: *p.CompareYearTo}, true
}

// DoctypeFilter returns the doctype filter or "" when unfiltered.
func (p *Plan) DoctypeFilter() string {
	if p.Doctype == nil {
		return ""
	}
	return *p.Doctype
}

// Validate checks the invariants every resolved plan holds.
func (p *Plan) Validate() error {
	if !p.ChartType.Valid() {
		return fmt.Errorf("%w: unsupported chart_type %q", ErrInvalidPlan, p.ChartType)
	}
	if !p.Mark.Valid() {
		return fmt.Errorf("%w: unsupported mark %q", ErrInvalidPlan, p.Mark)
	}
	if !YearInRange(p.YearFrom) || !YearInRange(p.YearTo) {
		return fmt.Errorf("%w: years must be in [%d, %d]", ErrInvalidPlan, MinYear, MaxYear)
	}
	if p.YearFrom > p.YearTo {
		return fmt.Errorf("%w: year_from %d is after year_to %d", ErrInvalidPlan, p.YearFrom, p.YearTo)
	}
	if p.LabelLevel < 0 {
		return fmt.Errorf("%w: label_level must be >= 0", ErrInvalidPlan)
	}
	if p.LabelScoreMin < 0 || p.LabelScoreMin > 1 {
		return fmt.Errorf("%w: label_score_min must be in [0,1]", ErrInvalidPlan)
	}
	if p.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidPlan)
	}
	if p.Doctype != nil && strings.TrimSpace(*p.Doctype) == "" {
		return fmt.Errorf("%w: doctype must be non-empty when set", ErrInvalidPlan)
	}
	if p.Color != nil && strings.TrimSpace(*p.Color) == "" {
		return fmt.Errorf("%w: color must be non-empty when set", ErrInvalidPlan)
	}
	bounds := p.CompareYearFrom != nil && p.CompareYearTo != nil
	if p.Compare && !bounds {
		return fmt.Errorf("%w: compare requires both compare_year_from and compare_year_to", ErrInvalidPlan)
	}
	if !p.Compare && (p.CompareYearFrom != nil || p.CompareYearTo != nil) {
		return fmt.Errorf("%w: compare bounds set without compare", ErrInvalidPlan)
	}
	if bounds && (!YearInRange(*p.CompareYearFrom) || !YearInRange(*p.CompareYearTo)) {
		return fmt.Errorf("%w: compare years must be in [%d, %d]", ErrInvalidPlan, MinYear, MaxYear)
	}
	if bounds && *p.CompareYearFrom > *p.CompareYearTo {
		return fmt.Errorf("%w: compare_year_from %d is after compare_year_to %d", ErrInvalidPlan, *p.CompareYearFrom, *p.CompareYearTo)
	}
	return nil
}

// Raw returns the plan in its loosely typed wire form, with nulls explicit.
func (p *Plan) Raw() Raw {
	r := Raw{
		KeyChartType:       string(p.ChartType),
		KeyYearFrom:        p.YearFrom,
		KeyYearTo:          p.YearTo,
		KeyDoctype:         nil,
		KeyLabelLevel:      p.LabelLevel,
		KeyLabelScoreMin:   p.LabelScoreMin,
		KeyTopK:            p.TopK,
		KeyColor:           nil,
		KeyMark:            string(p.Mark),
		KeyCompare:         p.Compare,
		KeyCompareYearFrom: nil,
		KeyCompareYearTo:   nil,
	}
	if p.Doctype != nil {
		r[KeyDoctype] = *p.Doctype
	}
	if p.Color != nil {
		r[KeyColor] = *p.Color
	}
	if p.CompareYearFrom != nil {
		r[KeyCompareYearFrom] = *p.CompareYearFrom
	}
	if p.CompareYearTo != nil {
		r[KeyCompareYearTo] = *p.CompareYearTo
	}
	return r
}

func String(s string) *string { return &s }

func Int(i int) *int { return &i }
