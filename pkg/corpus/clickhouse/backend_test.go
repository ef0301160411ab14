package clickhouse_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/scichart/pkg/corpus"
	"github.com/malbeclabs/scichart/pkg/corpus/clickhouse"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockQuerier struct {
	queryErr error
	pingErr  error
	rows     *mockRows

	lastQuery string
	lastArgs  []any
}

func (m *mockQuerier) Query(_ context.Context, q string, args ...any) (driver.Rows, error) {
	m.lastQuery = q
	m.lastArgs = args
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.rows, nil
}

func (m *mockQuerier) Ping(_ context.Context) error {
	return m.pingErr
}

// mockRows implements driver.Rows for testing.
type mockRows struct {
	data    [][]any
	index   int
	scanErr error
	err     error
}

func (m *mockRows) Next() bool {
	if m.index >= len(m.data) {
		return false
	}
	m.index++
	return true
}

func (m *mockRows) Scan(dest ...any) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	if m.index == 0 || m.index > len(m.data) {
		return errors.New("no current row")
	}
	row := m.data[m.index-1]
	for i, d := range dest {
		if i >= len(row) {
			break
		}
		switch v := d.(type) {
		case *string:
			if s, ok := row[i].(string); ok {
				*v = s
			}
		case *int64:
			if n, ok := row[i].(int64); ok {
				*v = n
			}
		}
	}
	return nil
}

func (m *mockRows) Close() error                     { return nil }
func (m *mockRows) Columns() []string                { return nil }
func (m *mockRows) ColumnTypes() []driver.ColumnType { return nil }
func (m *mockRows) Err() error                       { return m.err }
func (m *mockRows) Totals(_ ...any) error            { return nil }
func (m *mockRows) ScanStruct(_ any) error           { return nil }

func newTestBackend(t *testing.T, q clickhouse.Querier) *clickhouse.Backend {
	t.Helper()
	b, err := clickhouse.New(clickhouse.Config{Logger: logger, Querier: q})
	require.NoError(t, err)
	return b
}

func TestChart_ClickHouse_PapersByYear(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{rows: &mockRows{data: [][]any{
		{int64(2020), int64(4)},
		{int64(2022), int64(7)},
	}}}
	b := newTestBackend(t, q)

	got, err := b.PapersByYear(context.Background(), corpus.YearQuery{YearFrom: 2020, YearTo: 2022, Doctype: "article"})
	require.NoError(t, err)
	require.Equal(t, []corpus.YearCount{{Year: 2020, Count: 4}, {Year: 2022, Count: 7}}, got)
	require.Equal(t, []any{2020, 2022, "article"}, q.lastArgs)
	require.Contains(t, q.lastQuery, "FROM papers")
	require.Contains(t, q.lastQuery, "doctype = ?")
}

func TestChart_ClickHouse_PapersByYearWithoutDoctype(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{rows: &mockRows{}}
	b := newTestBackend(t, q)

	got, err := b.PapersByYear(context.Background(), corpus.YearQuery{YearFrom: 2020, YearTo: 2020})
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, []any{2020, 2020}, q.lastArgs)
	require.NotContains(t, q.lastQuery, "doctype")
}

func TestChart_ClickHouse_PapersByField(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{rows: &mockRows{data: [][]any{
		{"Medicine", int64(12)},
		{"Biology", int64(9)},
	}}}
	b, err := clickhouse.New(clickhouse.Config{Logger: logger, Querier: q, PapersTable: "dartmouth_papers"})
	require.NoError(t, err)

	got, err := b.PapersByField(context.Background(), corpus.FieldQuery{YearFrom: 2020, YearTo: 2024, Level: 1, ScoreMin: 0.3, TopK: 25})
	require.NoError(t, err)
	require.Equal(t, []corpus.FieldCount{{Label: "Medicine", Count: 12}, {Label: "Biology", Count: 9}}, got)
	require.Equal(t, []any{2020, 2024, 0.3, 1}, q.lastArgs)
	require.Contains(t, q.lastQuery, "FROM dartmouth_papers AS p")
	require.Contains(t, q.lastQuery, "INNER JOIN paperfields AS pf")
	require.True(t, strings.HasSuffix(strings.TrimSpace(q.lastQuery), "LIMIT 25"))
}

func TestChart_ClickHouse_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	b := newTestBackend(t, &mockQuerier{queryErr: errors.New("connection refused")})
	_, err := b.PapersByYear(ctx, corpus.YearQuery{YearFrom: 2020, YearTo: 2021})
	require.ErrorContains(t, err, "connection refused")

	b = newTestBackend(t, &mockQuerier{rows: &mockRows{data: [][]any{{"x", int64(1)}}, scanErr: errors.New("bad column")}})
	_, err = b.PapersByField(ctx, corpus.FieldQuery{YearFrom: 2020, YearTo: 2021, TopK: 5})
	require.ErrorContains(t, err, "bad column")

	b = newTestBackend(t, &mockQuerier{rows: &mockRows{err: errors.New("stream reset")}})
	_, err = b.PapersByYear(ctx, corpus.YearQuery{YearFrom: 2020, YearTo: 2021})
	require.ErrorContains(t, err, "stream reset")

	q := &mockQuerier{}
	b = newTestBackend(t, q)
	_, err = b.PapersByField(ctx, corpus.FieldQuery{YearFrom: 2020, YearTo: 2021, TopK: 0})
	require.Error(t, err)
	require.Empty(t, q.lastQuery)
}

func TestChart_ClickHouse_Ping(t *testing.T) {
	t.Parallel()

	require.NoError(t, newTestBackend(t, &mockQuerier{}).Ping(context.Background()))
	require.Error(t, newTestBackend(t, &mockQuerier{pingErr: errors.New("down")}).Ping(context.Background()))
}

func TestChart_ClickHouse_ConfigValidate(t *testing.T) {
	t.Parallel()

	_, err := clickhouse.New(clickhouse.Config{Querier: &mockQuerier{}})
	require.ErrorContains(t, err, "logger is required")
	_, err = clickhouse.New(clickhouse.Config{Logger: logger})
	require.ErrorContains(t, err, "querier is required")
}
