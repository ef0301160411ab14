package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/scichart/internal/backend"
	"github.com/malbeclabs/scichart/pkg/corpus/duck"
	"github.com/malbeclabs/scichart/pkg/fixtures"
)

type BuildCmd struct{}

func NewBuildCmd() *BuildCmd {
	return &BuildCmd{}
}

func (c *BuildCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the derived corpus tables from raw SciSciNet Parquet files",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURI, err := cmd.Flags().GetString("raw-uri")
			if err != nil {
				return fmt.Errorf("failed to get raw-uri flag: %w", err)
			}
			outURI, err := cmd.Flags().GetString("out-uri")
			if err != nil {
				return fmt.Errorf("failed to get out-uri flag: %w", err)
			}
			institutions, err := cmd.Flags().GetStringSlice("institution")
			if err != nil {
				return fmt.Errorf("failed to get institution flag: %w", err)
			}
			yearMin, err := cmd.Flags().GetInt("year-min")
			if err != nil {
				return fmt.Errorf("failed to get year-min flag: %w", err)
			}
			yearMax, err := cmd.Flags().GetInt("year-max")
			if err != nil {
				return fmt.Errorf("failed to get year-max flag: %w", err)
			}

			log, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if rawURI == "" {
				rawURI = cfg.RawURI
			}
			if outURI == "" {
				outURI = cfg.DataURI
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			db, err := backend.OpenDuckDB(ctx, log, cfg.DuckDBThreads, outURI, true)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := duck.BuildDerived(ctx, duck.BuildConfig{
				Logger:         log,
				DB:             db,
				RawURI:         rawURI,
				OutURI:         outURI,
				InstitutionIDs: institutions,
				YearMin:        yearMin,
				YearMax:        yearMax,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Derived %d papers in %s\n", res.Papers, res.Duration.Round(time.Millisecond))
			table := newTable(out)
			table.SetHeader([]string{"File"})
			for _, f := range res.Files {
				table.Append([]string{f})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("raw-uri", "", "Location of the raw SciSciNet tables (default from config)")
	cmd.Flags().String("out-uri", "", "Location for the derived tables (default from config data URI)")
	cmd.Flags().StringSlice("institution", nil, "Institution ids to keep (default: the Dartmouth institutions)")
	cmd.Flags().Int("year-min", duck.DefaultBuildYearMin, "Earliest publication year to keep")
	cmd.Flags().Int("year-max", duck.DefaultBuildYearMax, "Latest publication year to keep")

	return cmd
}

type SeedCmd struct{}

func NewSeedCmd() *SeedCmd {
	return &SeedCmd{}
}

func (c *SeedCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a small synthetic raw corpus for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURI, err := cmd.Flags().GetString("raw-uri")
			if err != nil {
				return fmt.Errorf("failed to get raw-uri flag: %w", err)
			}
			yearFrom, err := cmd.Flags().GetInt("year-from")
			if err != nil {
				return fmt.Errorf("failed to get year-from flag: %w", err)
			}
			yearTo, err := cmd.Flags().GetInt("year-to")
			if err != nil {
				return fmt.Errorf("failed to get year-to flag: %w", err)
			}
			if yearFrom > yearTo {
				return fmt.Errorf("year-from %d is after year-to %d", yearFrom, yearTo)
			}

			log, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if rawURI == "" {
				rawURI = cfg.RawURI
			}
			dir, err := duck.ResolveDataPath(rawURI)
			if err != nil {
				return fmt.Errorf("invalid raw URI: %w", err)
			}
			if !strings.HasPrefix(dir, "s3://") {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create raw directory: %w", err)
				}
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			db, err := backend.OpenDuckDB(ctx, log, cfg.DuckDBThreads, rawURI, true)
			if err != nil {
				return err
			}
			defer db.Close()

			corpus := fixtures.Demo(yearFrom, yearTo)
			if err := corpus.WriteRaw(ctx, db, dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d papers across %d fields to %s\n", len(corpus.Papers), len(corpus.Fields), dir)
			return nil
		},
	}

	cmd.Flags().String("raw-uri", "", "Where to write the raw tables (default from config)")
	cmd.Flags().Int("year-from", 2015, "First year of synthetic papers")
	cmd.Flags().Int("year-to", 2024, "Last year of synthetic papers")

	return cmd
}
