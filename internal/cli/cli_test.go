package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/scichart/pkg/aggregator"
	"github.com/malbeclabs/scichart/pkg/pipeline"
	"github.com/malbeclabs/scichart/pkg/plan"
)

func TestChart_CLI_ReadTurns(t *testing.T) {
	t.Parallel()

	t.Run("skips blanks and comments", func(t *testing.T) {
		t.Parallel()
		input := "# questions\nPapers by year\n\n   \n  top fields since 2015  \n#skip me\n"
		turns, err := readTurns(strings.NewReader(input))
		require.NoError(t, err)
		require.Equal(t, []pipeline.Turn{
			{Text: "Papers by year"},
			{Text: "top fields since 2015"},
		}, turns)
	})

	t.Run("empty file is an error", func(t *testing.T) {
		t.Parallel()
		_, err := readTurns(strings.NewReader("# nothing here\n\n"))
		require.ErrorContains(t, err, "no questions")
	})
}

func TestChart_CLI_ValidateOutput(t *testing.T) {
	t.Parallel()
	require.NoError(t, validateOutput(outputTable))
	require.NoError(t, validateOutput(outputJSON))
	require.ErrorContains(t, validateOutput("yaml"), "unknown output format")
}

func TestChart_CLI_ReadPlanFile(t *testing.T) {
	t.Parallel()

	t.Run("empty path means no previous plan", func(t *testing.T) {
		t.Parallel()
		prev, err := readPlanFile("")
		require.NoError(t, err)
		require.Nil(t, prev)
	})

	t.Run("reads a saved plan", func(t *testing.T) {
		t.Parallel()
		p := plan.Default()
		p.ChartType = plan.ChartByLabel
		data, err := json.Marshal(p)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "plan.json")
		require.NoError(t, os.WriteFile(path, data, 0o644))

		prev, err := readPlanFile(path)
		require.NoError(t, err)
		v, ok := prev.Lookup(plan.KeyChartType)
		require.True(t, ok)
		require.Equal(t, string(plan.ChartByLabel), v)
	})

	t.Run("rejects non-object json", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "plan.json")
		require.NoError(t, os.WriteFile(path, []byte("[1, 2]"), 0o644))
		_, err := readPlanFile(path)
		require.ErrorContains(t, err, "invalid previous plan")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := readPlanFile(filepath.Join(t.TempDir(), "missing.json"))
		require.ErrorContains(t, err, "failed to read previous plan")
	})
}

func TestChart_CLI_PrintResult(t *testing.T) {
	t.Parallel()

	t.Run("table", func(t *testing.T) {
		t.Parallel()
		res := &pipeline.Result{
			Caption: "Papers per year, 2020–2021",
			Plan:    plan.Default(),
			Rows: []aggregator.Row{
				{Category: "2020", Count: 4},
				{Category: "2021", Count: 0},
			},
		}
		var buf bytes.Buffer
		require.NoError(t, printResult(&buf, res, outputTable))
		out := buf.String()
		require.True(t, strings.HasPrefix(out, "Papers per year, 2020–2021\n"))
		require.Contains(t, out, "Category")
		require.NotContains(t, out, "Group")
		require.Contains(t, out, "2020")
		require.Contains(t, out, "4")
	})

	t.Run("compare table has group column", func(t *testing.T) {
		t.Parallel()
		p := plan.Default()
		p.Compare = true
		res := &pipeline.Result{
			Caption: "compare",
			Plan:    p,
			Rows: []aggregator.Row{
				{Group: aggregator.GroupA, Category: "Biology", Count: 7},
				{Group: aggregator.GroupB, Category: "Biology", Count: 2},
			},
		}
		var buf bytes.Buffer
		require.NoError(t, printResult(&buf, res, outputTable))
		out := buf.String()
		require.Contains(t, out, "Group")
		require.Contains(t, out, aggregator.GroupA)
		require.Contains(t, out, aggregator.GroupB)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		res := &pipeline.Result{
			Caption: "c",
			Plan:    plan.Default(),
			Rows:    []aggregator.Row{},
		}
		var buf bytes.Buffer
		require.NoError(t, printResult(&buf, res, outputJSON))
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Equal(t, "c", decoded["caption"])
		require.Equal(t, []any{}, decoded["rows"])
	})
}

func TestChart_CLI_PrintBatch(t *testing.T) {
	t.Parallel()

	results := []pipeline.BatchResult{
		{
			Turn:   pipeline.Turn{Text: "papers by year"},
			Result: &pipeline.Result{Caption: "Papers per year", Plan: plan.Default(), Rows: []aggregator.Row{{Category: "2020", Count: 1}}},
		},
		{
			Turn: pipeline.Turn{Text: "pie chart of everything"},
			Err:  fmt.Errorf("%w: pie", aggregator.ErrUnsupportedChartType),
		},
	}

	t.Run("table", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, printBatch(&buf, results, outputTable))
		out := buf.String()
		require.Contains(t, out, "papers by year")
		require.Contains(t, out, "Papers per year")
		require.Contains(t, out, pipeline.ErrorTypeUnsupportedChart)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, printBatch(&buf, results, outputJSON))
		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		require.Equal(t, "papers by year", decoded[0]["question"])
		require.NotContains(t, decoded[0], "error_type")
		require.Equal(t, pipeline.ErrorTypeUnsupportedChart, decoded[1]["error_type"])
		require.NotContains(t, decoded[1], "result")
	})
}
