package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/scichart/pkg/plan"
)

type AskCmd struct{}

func NewAskCmd() *AskCmd {
	return &AskCmd{}
}

func (c *AskCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask TEXT",
		Short: "Run one chart turn",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prevPath, err := cmd.Flags().GetString("prev")
			if err != nil {
				return fmt.Errorf("failed to get prev flag: %w", err)
			}
			savePlanPath, err := cmd.Flags().GetString("save-plan")
			if err != nil {
				return fmt.Errorf("failed to get save-plan flag: %w", err)
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

			prev, err := readPlanFile(prevPath)
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

			res, err := pipe.Run(ctx, strings.Join(args, " "), prev)
			if err != nil {
				return err
			}
			if savePlanPath != "" {
				data, err := json.MarshalIndent(res.Plan, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode plan: %w", err)
				}
				if err := os.WriteFile(savePlanPath, append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("failed to write plan: %w", err)
				}
			}
			return printResult(cmd.OutOrStdout(), res, output)
		},
	}

	cmd.Flags().String("prev", "", "Path to the previous turn's plan (JSON)")
	cmd.Flags().String("save-plan", "", "Write the resolved plan to this path for use with --prev")
	cmd.Flags().StringP("output", "o", outputTable, "Output format (table, json)")

	return cmd
}

func readPlanFile(path string) (plan.Raw, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read previous plan: %w", err)
	}
	prev, err := plan.ParseRaw(data)
	if err != nil {
		return nil, fmt.Errorf("invalid previous plan %s: %w", path, err)
	}
	return prev, nil
}
