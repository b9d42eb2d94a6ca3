package main

import (
	"fmt"

	"github.com/jgoulah/flightscraper/internal/aggregate"
	"github.com/jgoulah/flightscraper/internal/config"
	"github.com/jgoulah/flightscraper/internal/database"
	"github.com/jgoulah/flightscraper/internal/dataset"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [source]",
	Short: "Export stored data as a CSV table",
	Long: `Writes stored rows in the table layout the aggregate command reads.

  tsa     date (MM/DD/YYYY), passenger_volume
  trends  date, one column per trend query`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"tsa", "trends"},
	RunE:      runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path (default from config paths)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var table *aggregate.Table
	path := exportOutput

	switch source {
	case "tsa":
		table, err = storedPassengerTable(db)
		if path == "" {
			path = cfg.GetTSACSV()
		}
	case "trends":
		table, err = storedTrendTable(db, cfg.GetTrendQueries())
		if path == "" {
			path = cfg.GetTrendsCSV()
		}
	default:
		return fmt.Errorf("unknown source: %s (available: tsa, trends)", source)
	}
	if err != nil {
		return err
	}

	if table.Len() == 0 {
		return fmt.Errorf("no %s data stored; run 'flightscraper fetch %s' first", source, source)
	}

	if err := dataset.WriteTable(path, table); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	printSuccess("Wrote %d rows to %s", table.Len(), path)
	return nil
}

func storedPassengerTable(db *database.DB) (*aggregate.Table, error) {
	volumes, err := db.ListPassengerVolumes()
	if err != nil {
		return nil, fmt.Errorf("listing passenger volumes: %w", err)
	}
	return dataset.PassengerTable(volumes), nil
}

// storedTrendTable pivots every stored column into one weekly table, with
// configured queries first in config order
func storedTrendTable(db *database.DB, queries []config.TrendQuery) (*aggregate.Table, error) {
	series, err := db.TrendColumns()
	if err != nil {
		return nil, fmt.Errorf("listing trend columns: %w", err)
	}
	columns := orderTrendColumns(series, queries)

	points, err := db.ListTrendPoints("")
	if err != nil {
		return nil, fmt.Errorf("listing trend points: %w", err)
	}

	table, dropped := dataset.TrendTable(points, columns)
	if dropped > 0 {
		printWarning("Dropped %d weeks missing a value for some trend column", dropped)
	}
	return table, nil
}

// orderTrendColumns lists stored columns in the order of the configured
// queries. Stored columns no longer configured follow in name order.
func orderTrendColumns(stored []database.TrendSeries, queries []config.TrendQuery) []string {
	have := make(map[string]bool, len(stored))
	for _, s := range stored {
		have[s.Column] = true
	}

	columns := make([]string, 0, len(stored))
	for _, q := range queries {
		if have[q.Column] {
			columns = append(columns, q.Column)
			delete(have, q.Column)
		}
	}
	for _, s := range stored {
		if have[s.Column] {
			columns = append(columns, s.Column)
		}
	}
	return columns
}
