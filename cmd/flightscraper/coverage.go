package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/flightscraper/internal/database"
	"github.com/spf13/cobra"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Show stored date ranges and gaps per source",
	Long: `Reports how many rows are stored for each source, the date range they cover,
and the dates missing inside that range. Run this before aggregating to check that
the passenger data spans the trend weeks.`,
	RunE: runCoverage,
}

func init() {
	rootCmd.AddCommand(coverageCmd)
}

func runCoverage(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	headers := []string{"Source", "Rows", "First", "Last", "Missing"}
	var rows [][]string

	pc, err := db.PassengerCoverage()
	if err != nil {
		return err
	}
	volumes, err := db.ListPassengerVolumes()
	if err != nil {
		return fmt.Errorf("listing passenger volumes: %w", err)
	}
	dates := make([]time.Time, len(volumes))
	for i, v := range volumes {
		dates[i] = v.Date
	}
	tsaGaps := missingDates(dates, 1)
	rows = append(rows, coverageRow("tsa (daily)", pc, len(tsaGaps)))

	series, err := db.TrendColumns()
	if err != nil {
		return fmt.Errorf("listing trend columns: %w", err)
	}
	for _, s := range series {
		tc, err := db.TrendCoverage(s.Column)
		if err != nil {
			return err
		}
		points, err := db.ListTrendPoints(s.Column)
		if err != nil {
			return fmt.Errorf("listing trend points: %w", err)
		}
		dates := make([]time.Time, len(points))
		for i, p := range points {
			dates[i] = p.Date
		}
		rows = append(rows, coverageRow(fmt.Sprintf("trends %s (weekly)", s.Column), tc, len(missingDates(dates, 7))))
	}

	if err := renderTable(os.Stdout, headers, rows); err != nil {
		return err
	}

	if len(tsaGaps) > 0 {
		printHeader("Missing TSA days")
		shown := tsaGaps
		if len(shown) > 20 {
			shown = shown[:20]
		}
		for _, d := range shown {
			fmt.Printf("  %s\n", d.Format("2006-01-02 (Mon)"))
		}
		if len(tsaGaps) > len(shown) {
			fmt.Printf("  ... and %d more\n", len(tsaGaps)-len(shown))
		}
	}
	return nil
}

func coverageRow(source string, c database.Coverage, missing int) []string {
	if c.Rows == 0 {
		return []string{source, "0", "-", "-", "-"}
	}
	return []string{
		source,
		humanize.Comma(int64(c.Rows)),
		c.First.Format("2006-01-02"),
		c.Last.Format("2006-01-02"),
		humanize.Comma(int64(missing)),
	}
}

// missingDates returns the dates absent from a sorted series expected to
// advance stepDays at a time
func missingDates(dates []time.Time, stepDays int) []time.Time {
	var missing []time.Time
	for i := 1; i < len(dates); i++ {
		for d := dates[i-1].AddDate(0, 0, stepDays); d.Before(dates[i]); d = d.AddDate(0, 0, stepDays) {
			missing = append(missing, d)
		}
	}
	return missing
}
