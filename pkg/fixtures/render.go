package fixtures

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

//go:embed *.sql.tmpl
var templatesFS embed.FS

// seq generates a sequence of integers from start to end (inclusive)
func seq(start, end int) []int {
	if start > end {
		return []int{}
	}
	result := make([]int, end-start+1)
	for i := range result {
		result[i] = start + i
	}
	return result
}

// sqlString renders a single-quoted literal, or NULL for "".
func sqlString(s string) string {
	if s == "" {
		return "NULL"
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func sqlFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var templateFuncs = template.FuncMap{
	"seq":       seq,
	"sqlString": sqlString,
	"sqlFloat":  sqlFloat,
}

var templates = template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "*.sql.tmpl"))

// renderNamed executes one of the embedded named templates.
func renderNamed(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
