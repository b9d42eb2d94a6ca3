package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tsa: [unclosed"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Values(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
tsa:
  urls:
    - https://example.com/volumes
  page_delay: 2s
trends:
  start_date: "2024-01-01"
  query_delay: 500ms
  queries:
    - keyword: Flight Status
    - keyword: car rental
      category: 203
      column: rentals
paths:
  output: out/full.xlsx
resample:
  anchor: "2023-01-07"
mqtt:
  enabled: true
  broker: localhost:1883
  topic_prefix: travel/
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/volumes"}, cfg.GetTSAURLs())
	assert.Equal(t, 2*time.Second, cfg.GetPageDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.GetQueryDelay())
	assert.Equal(t, "2024-01-01 2024-03-01", cfg.GetTimeframe(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, []TrendQuery{
		{Keyword: "Flight Status", Column: "flight_status"},
		{Keyword: "car rental", Category: 203, Column: "rentals"},
	}, cfg.GetTrendQueries())
	assert.Equal(t, "out/full.xlsx", cfg.GetOutput())
	assert.Equal(t, "travel", cfg.GetTopicPrefix())
	assert.True(t, cfg.MQTT.Enabled)

	anchor, err := cfg.GetAnchor()
	require.NoError(t, err)
	require.NotNil(t, anchor)
	assert.Equal(t, time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC), *anchor)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	assert.Len(t, cfg.GetTSAURLs(), 3)
	assert.Equal(t, time.Second, cfg.GetPageDelay())
	assert.Equal(t, 10*time.Second, cfg.GetQueryDelay())
	assert.Equal(t, 3, cfg.GetMaxRetries())
	assert.Equal(t, 30*time.Second, cfg.GetBackoffBase())
	assert.Equal(t, "US", cfg.GetGeo())
	assert.Equal(t, "en-US", cfg.GetLanguage())
	assert.Equal(t, 360, cfg.GetTZOffset())
	assert.Equal(t, filepath.Join("data", "tsa_passenger_data.csv"), cfg.GetTSACSV())
	assert.Equal(t, filepath.Join("data", "flight_related_trends_combined.csv"), cfg.GetTrendsCSV())
	assert.Equal(t, filepath.Join("data", "full_dataset.csv"), cfg.GetOutput())
	assert.Equal(t, "flightscraper", cfg.GetTopicPrefix())

	queries := cfg.GetTrendQueries()
	require.Len(t, queries, 3)
	assert.Equal(t, "car_rental", queries[2].Column)
	assert.Equal(t, 203, queries[2].Category)

	anchor, err := cfg.GetAnchor()
	require.NoError(t, err)
	assert.Nil(t, anchor)
}

func TestGetAnchor_Invalid(t *testing.T) {
	cfg := &Config{Resample: ResampleConfig{Anchor: "07/01/2023"}}
	_, err := cfg.GetAnchor()
	assert.Error(t, err)
}

func TestSave_RoundTripsCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		Trends: TrendsConfig{
			Cookies: []Cookie{{Name: "NID", Value: "abc", Domain: ".google.com", Path: "/", Secure: true}},
		},
	}

	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Trends.Cookies, loaded.Trends.Cookies)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "flight_status", ColumnName(" Flight Status "))
	assert.Equal(t, "car_rental", ColumnName("car rental"))
}
