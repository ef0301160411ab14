package aggregator_test

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/lmittmann/tint"

	"github.com/malbeclabs/scichart/pkg/corpus"
)

var (
	logger *slog.Logger
)

func TestMain(m *testing.M) {
	flag.Parse()
	verbose := false
	if vFlag := flag.Lookup("test.v"); vFlag != nil && vFlag.Value.String() == "true" {
		verbose = true
	}
	if verbose {
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	os.Exit(m.Run())
}

type mockBackend struct {
	PapersByYearFunc  func(ctx context.Context, q corpus.YearQuery) ([]corpus.YearCount, error)
	PapersByFieldFunc func(ctx context.Context, q corpus.FieldQuery) ([]corpus.FieldCount, error)
	PingFunc          func(ctx context.Context) error
}

func (m *mockBackend) PapersByYear(ctx context.Context, q corpus.YearQuery) ([]corpus.YearCount, error) {
	return m.PapersByYearFunc(ctx, q)
}

func (m *mockBackend) PapersByField(ctx context.Context, q corpus.FieldQuery) ([]corpus.FieldCount, error) {
	return m.PapersByFieldFunc(ctx, q)
}

func (m *mockBackend) Ping(ctx context.Context) error {
	if m.PingFunc == nil {
		return nil
	}
	return m.PingFunc(ctx)
}
