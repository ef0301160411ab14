package planner_test

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/lmittmann/tint"
	"github.com/malbeclabs/scichart/pkg/plan"
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

type mockInterpreter struct {
	InterpretFunc func(ctx context.Context, userText string, prev plan.Raw) (plan.Raw, error)
}

func (m *mockInterpreter) Interpret(ctx context.Context, userText string, prev plan.Raw) (plan.Raw, error) {
	return m.InterpretFunc(ctx, userText, prev)
}

// returning builds an interpreter that always yields raw.
func returning(raw plan.Raw) *mockInterpreter {
	return &mockInterpreter{
		InterpretFunc: func(context.Context, string, plan.Raw) (plan.Raw, error) {
			return raw.Clone(), nil
		},
	}
}

type mockLLMClient struct {
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (m *mockLLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.CompleteFunc(ctx, systemPrompt, userPrompt)
}
