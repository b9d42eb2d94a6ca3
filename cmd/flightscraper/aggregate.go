package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jgoulah/flightscraper/internal/aggregate"
	"github.com/jgoulah/flightscraper/internal/config"
	"github.com/jgoulah/flightscraper/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	aggTrends string
	aggTSA    string
	aggOutput string
	aggFromDB bool
	aggAnchor string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Merge weekly trends with weekly passenger totals",
	Long: `Sums daily passenger counts into 7-day windows labeled by their closing date,
then keeps the weeks present in both the trends table and the weekly totals.
The result is written as CSV, or as an Excel workbook when the output ends in .xlsx.`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVar(&aggTrends, "trends", "", "Trends CSV (default from config paths)")
	aggregateCmd.Flags().StringVar(&aggTSA, "tsa", "", "Daily passenger CSV (default from config paths)")
	aggregateCmd.Flags().StringVarP(&aggOutput, "output", "o", "", "Output path, .csv or .xlsx (default from config paths)")
	aggregateCmd.Flags().BoolVar(&aggFromDB, "from-db", false, "Read inputs from the database instead of CSV files")
	aggregateCmd.Flags().StringVar(&aggAnchor, "anchor", "", "Align weeks to end on this date (YYYY-MM-DD)")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	runID := uuid.NewString()
	logger := slog.Default().With(slog.String("run_id", runID))

	result, err := runPipeline(cfg, logger)
	if err != nil {
		return err
	}

	output := aggOutput
	if output == "" {
		output = cfg.GetOutput()
	}
	if err := dataset.WriteTable(output, result.Table); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	logger.Info("wrote merged dataset", slog.String("path", output), slog.Int("rows", result.Table.Len()))

	s := result.Stats
	fmt.Printf("Trend weeks:      %s\n", humanize.Comma(int64(s.TrendRows)))
	fmt.Printf("Daily rows:       %s\n", humanize.Comma(int64(s.DailyRows)))
	fmt.Printf("Weekly windows:   %s\n", humanize.Comma(int64(s.WeeklyRows)))
	fmt.Printf("Merged weeks:     %s\n", humanize.Comma(int64(s.MergedRows)))
	if s.MergedRows == 0 {
		printWarning("No weeks matched; check that both inputs cover the same period; trend weeks are dated by their Sunday start, so try --anchor with a Sunday")
		return nil
	}
	fmt.Printf("Date range:       %s to %s\n", aggregate.FormatDate(s.First), aggregate.FormatDate(s.Last))
	printSuccess("Wrote %d rows to %s", result.Table.Len(), output)
	return nil
}

// runPipeline loads both inputs from the flags, config or database and merges them
func runPipeline(cfg *config.Config, logger *slog.Logger) (*aggregate.Result, error) {
	trends, daily, err := loadInputs(cfg)
	if err != nil {
		return nil, err
	}

	p := aggregate.NewPipeline(logger)
	if aggAnchor != "" {
		anchor, err := time.Parse("2006-01-02", aggAnchor)
		if err != nil {
			return nil, fmt.Errorf("parsing --anchor: %w", err)
		}
		p.Anchor = &anchor
	} else if p.Anchor, err = cfg.GetAnchor(); err != nil {
		return nil, err
	}

	result, err := p.Run(trends, daily)
	if err != nil {
		return nil, fmt.Errorf("merging datasets: %w", err)
	}
	return result, nil
}

func loadInputs(cfg *config.Config) (trends, daily *aggregate.Table, err error) {
	if aggFromDB {
		db, err := openDB()
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if trends, err = storedTrendTable(db, cfg.GetTrendQueries()); err != nil {
			return nil, nil, err
		}
		if daily, err = storedPassengerTable(db); err != nil {
			return nil, nil, err
		}
		return trends, daily, nil
	}

	trendsPath := aggTrends
	if trendsPath == "" {
		trendsPath = cfg.GetTrendsCSV()
	}
	tsaPath := aggTSA
	if tsaPath == "" {
		tsaPath = cfg.GetTSACSV()
	}

	if trends, err = dataset.ReadCSV(trendsPath); err != nil {
		return nil, nil, err
	}
	if daily, err = dataset.ReadCSV(tsaPath); err != nil {
		return nil, nil, err
	}
	return trends, daily, nil
}
