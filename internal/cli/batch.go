package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/scichart/pkg/pipeline"
)

type BatchCmd struct{}

func NewBatchCmd() *BatchCmd {
	return &BatchCmd{}
}

func (c *BatchCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Run independent chart turns, one question per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			concurrency, err := cmd.Flags().GetInt("concurrency")
			if err != nil {
				return fmt.Errorf("failed to get concurrency flag: %w", err)
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("failed to get output flag: %w", err)
			}
			if err := validateOutput(output); err != nil {
				return err
			}

			log, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if concurrency <= 0 {
				concurrency = cfg.BatchConcurrency
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open questions file: %w", err)
			}
			defer f.Close()
			turns, err := readTurns(f)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			pipe, closer, err := newPipeline(ctx, log, cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			log.Info("cli: running batch", "turns", len(turns), "concurrency", concurrency)
			results, err := pipe.Batch(ctx, turns, concurrency)
			if err != nil {
				return err
			}
			return printBatch(cmd.OutOrStdout(), results, output)
		},
	}

	cmd.Flags().Int("concurrency", 0, "Number of turns to run at once (default from config)")
	cmd.Flags().StringP("output", "o", outputTable, "Output format (table, json)")

	return cmd
}

// readTurns reads one question per line, skipping blank lines and # comments.
func readTurns(r io.Reader) ([]pipeline.Turn, error) {
	var turns []pipeline.Turn
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		turns = append(turns, pipeline.Turn{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("no questions found")
	}
	return turns, nil
}
