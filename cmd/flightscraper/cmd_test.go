package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/flightscraper/internal/config"
	"github.com/jgoulah/flightscraper/internal/database"
	"github.com/jgoulah/flightscraper/internal/dataset"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestMissingDates(t *testing.T) {
	daily := []time.Time{day("2023-01-01"), day("2023-01-02"), day("2023-01-05")}
	assert.Equal(t, []time.Time{day("2023-01-03"), day("2023-01-04")}, missingDates(daily, 1))

	weekly := []time.Time{day("2023-01-01"), day("2023-01-22")}
	assert.Equal(t, []time.Time{day("2023-01-08"), day("2023-01-15")}, missingDates(weekly, 7))

	assert.Empty(t, missingDates(nil, 1))
}

func TestOrderTrendColumns(t *testing.T) {
	stored := []database.TrendSeries{
		{Keyword: "airport parking", Column: "airport_parking"},
		{Keyword: "baggage fees", Column: "baggage_fees"},
		{Keyword: "car rental", Column: "car_rental"},
		{Keyword: "flight status", Column: "flight_status"},
	}
	queries := (&config.Config{}).GetTrendQueries()

	assert.Equal(t,
		[]string{"flight_status", "airport_parking", "car_rental", "baggage_fees"},
		orderTrendColumns(stored, queries))

	// configured queries with nothing stored are left out
	assert.Equal(t, []string{"car_rental"},
		orderTrendColumns([]database.TrendSeries{{Keyword: "car rental", Column: "car_rental"}}, queries))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "text", false},
		{"debug", "json", false},
		{"WARN", "", false},
		{"verbose", "text", true},
		{"info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger, err := newLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestAggregateCommand(t *testing.T) {
	dir := t.TempDir()
	trends := filepath.Join(dir, "trends.csv")
	tsa := filepath.Join(dir, "tsa.csv")
	out := filepath.Join(dir, "out", "full_dataset.csv")

	require.NoError(t, os.WriteFile(trends, []byte("date,flight_status\n2023-01-07,45\n2023-01-14,47\n"), 0644))

	daily := "date,passenger_volume\n"
	for d := day("2023-01-01"); !d.After(day("2023-01-14")); d = d.AddDate(0, 0, 1) {
		daily += d.Format("01/02/2006") + ",\"1,000\"\n"
	}
	require.NoError(t, os.WriteFile(tsa, []byte(daily), 0644))

	rootCmd.SetArgs([]string{
		"aggregate",
		"--config", filepath.Join(dir, "config.yaml"),
		"--trends", trends,
		"--tsa", tsa,
		"--output", out,
	})
	require.NoError(t, rootCmd.Execute())

	merged, err := dataset.ReadCSV(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "flight_status", "weekly_passenger_volume"}, merged.Header)
	assert.Equal(t, [][]string{
		{"2023-01-07", "45", "7000"},
		{"2023-01-14", "47", "7000"},
	}, merged.Rows)
}
