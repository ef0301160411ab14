package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/scichart/config"
	"github.com/malbeclabs/scichart/internal/backend"
	"github.com/malbeclabs/scichart/pkg/aggregator"
	"github.com/malbeclabs/scichart/pkg/logger"
	"github.com/malbeclabs/scichart/pkg/pipeline"
	"github.com/malbeclabs/scichart/pkg/planner"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func Run() ExitCode {
	rootCmd := &cobra.Command{
		Use:           "chart-cli",
		Short:         "Ask for charts over the research-paper corpus and build its derived tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")

	var env string
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", config.EnvLocal, "The deployment environment (local, production)")

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(
		NewAskCmd().Command(),
		NewBatchCmd().Command(),
		NewBuildCmd().Command(),
		NewSeedCmd().Command(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeError
	}

	return exitCodeSuccess
}

// setup reads the persistent flags and returns the logger and configuration.
func setup(cmd *cobra.Command) (*slog.Logger, *config.Config, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	env, err := cmd.Root().PersistentFlags().GetString("env")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get env flag: %w", err)
	}
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	_ = godotenv.Load()

	// Logs go to stderr so stdout stays parseable with --output json.
	log := logger.NewWithWriter(os.Stderr, verbose)
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return log, cfg, nil
}

// newPipeline wires the interpreter, backend and aggregator for chart turns.
func newPipeline(ctx context.Context, log *slog.Logger, cfg *config.Config) (*pipeline.Pipeline, io.Closer, error) {
	corpusBackend, closer, err := backend.Open(ctx, log, cfg)
	if err != nil {
		return nil, nil, err
	}

	llm := planner.NewAnthropicLLMClient(log, anthropic.Model(cfg.Anthropic.Model), cfg.Anthropic.MaxTokens, cfg.Anthropic.APIKey)
	interp, err := planner.NewLLMInterpreter(log, llm)
	if err != nil {
		_ = closer.Close()
		return nil, nil, fmt.Errorf("failed to create interpreter: %w", err)
	}
	resolver, err := planner.New(planner.Config{Logger: log, Interpreter: interp})
	if err != nil {
		_ = closer.Close()
		return nil, nil, fmt.Errorf("failed to create planner: %w", err)
	}
	agg, err := aggregator.New(aggregator.Config{Logger: log, Backend: corpusBackend})
	if err != nil {
		_ = closer.Close()
		return nil, nil, fmt.Errorf("failed to create aggregator: %w", err)
	}
	pipe, err := pipeline.New(pipeline.Config{Logger: log, Resolver: resolver, Aggregator: agg})
	if err != nil {
		_ = closer.Close()
		return nil, nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	return pipe, closer, nil
}
