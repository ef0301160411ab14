package planner

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/malbeclabs/scichart/pkg/plan"
	"github.com/malbeclabs/scichart/pkg/planner/prompts"
)

type systemPromptData struct {
	ByTime        plan.ChartType
	ByLabel       plan.ChartType
	ChartTypes    string
	Marks         string
	Doctypes      string
	YearFrom      int
	YearTo        int
	LabelLevel    int
	LabelScoreMin float64
	TopK          int
	Mark          plan.Mark
}

// LoadSystemPrompt renders the embedded system prompt with the plan defaults.
func LoadSystemPrompt() (string, error) {
	data, err := prompts.PromptsFS.ReadFile("SYSTEM.md")
	if err != nil {
		return "", fmt.Errorf("failed to read SYSTEM.md: %w", err)
	}
	tmpl, err := template.New("system").Parse(string(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse SYSTEM.md: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, systemPromptData{
		ByTime:        plan.ChartByTime,
		ByLabel:       plan.ChartByLabel,
		ChartTypes:    quoteJoin([]string{string(plan.ChartByTime), string(plan.ChartByLabel)}),
		Marks:         quoteJoin([]string{string(plan.MarkBar), string(plan.MarkLine), string(plan.MarkArea)}),
		Doctypes:      strings.Join(Doctypes, ", "),
		YearFrom:      plan.DefaultYearFrom,
		YearTo:        plan.DefaultYearTo,
		LabelLevel:    plan.DefaultLabelLevel,
		LabelScoreMin: plan.DefaultLabelScoreMin,
		TopK:          plan.DefaultTopK,
		Mark:          plan.DefaultMark,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render SYSTEM.md: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return strings.Join(quoted, ", ")
}
