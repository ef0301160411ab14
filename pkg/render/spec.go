package render

import "github.com/malbeclabs/scichart/pkg/aggregator"

const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Spec is the subset of a Vega-Lite v5 single-view specification the
// renderer produces.
type Spec struct {
	Schema      string   `json:"$schema"`
	Description string   `json:"description"`
	Data        Data     `json:"data"`
	Params      []Param  `json:"params"`
	Mark        Mark     `json:"mark"`
	Encoding    Encoding `json:"encoding"`
}

type Data struct {
	Values []aggregator.Row `json:"values"`
}

type Param struct {
	Name   string    `json:"name"`
	Select Selection `json:"select"`
}

type Selection struct {
	Type   string   `json:"type"`
	Fields []string `json:"fields"`
}

type Mark struct {
	Type    string `json:"type"`
	Tooltip bool   `json:"tooltip"`
	Color   string `json:"color,omitempty"`
}

type Encoding struct {
	X       FieldDef    `json:"x"`
	Y       FieldDef    `json:"y"`
	Color   *FieldDef   `json:"color,omitempty"`
	Opacity Conditional `json:"opacity"`
	Tooltip []FieldDef  `json:"tooltip"`
}

type FieldDef struct {
	Field string `json:"field"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
	Sort  string `json:"sort,omitempty"`
}

type Conditional struct {
	Condition Condition `json:"condition"`
	Value     float64   `json:"value"`
}

type Condition struct {
	Param string  `json:"param"`
	Value float64 `json:"value"`
}
