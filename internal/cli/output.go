package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/malbeclabs/scichart/pkg/pipeline"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func validateOutput(format string) error {
	if format != outputTable && format != outputJSON {
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, outputTable, outputJSON)
	}
	return nil
}

func printResult(w io.Writer, res *pipeline.Result, format string) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintln(w, res.Caption)

	compare := res.Plan != nil && res.Plan.Compare
	table := newTable(w)
	if compare {
		table.SetHeader([]string{"Group", "Category", "Papers"})
	} else {
		table.SetHeader([]string{"Category", "Papers"})
	}
	for _, r := range res.Rows {
		count := strconv.FormatInt(r.Count, 10)
		if compare {
			table.Append([]string{r.Group, r.Category, count})
		} else {
			table.Append([]string{r.Category, count})
		}
	}
	table.Render()
	return nil
}

func printBatch(w io.Writer, results []pipeline.BatchResult, format string) error {
	if format == outputJSON {
		type entry struct {
			Question  string           `json:"question"`
			Result    *pipeline.Result `json:"result,omitempty"`
			ErrorType string           `json:"error_type,omitempty"`
			Error     string           `json:"error,omitempty"`
		}
		out := make([]entry, 0, len(results))
		for _, r := range results {
			e := entry{Question: r.Turn.Text, Result: r.Result}
			if r.Err != nil {
				e.ErrorType = pipeline.ErrorType(r.Err)
				e.Error = r.Err.Error()
			}
			out = append(out, e)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	table := newTable(w)
	table.SetHeader([]string{"#", "Question", "Result", "Rows"})
	for i, r := range results {
		result, rows := "", ""
		if r.Err != nil {
			result = pipeline.ErrorType(r.Err) + ": " + r.Err.Error()
		} else {
			result = r.Result.Caption
			rows = strconv.Itoa(len(r.Result.Rows))
		}
		table.Append([]string{strconv.Itoa(i + 1), r.Turn.Text, result, rows})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	return table
}
