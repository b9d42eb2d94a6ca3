package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default TSA pages: the current year plus prior years, most recent first
var defaultTSAURLs = []string{
	"https://www.tsa.gov/travel/passenger-volumes",
	"https://www.tsa.gov/travel/passenger-volumes/2024",
	"https://www.tsa.gov/travel/passenger-volumes/2023",
}

// Default trend queries collected into the combined trends table
var defaultTrendQueries = []TrendQuery{
	{Keyword: "flight status", Category: 0},
	{Keyword: "airport parking", Category: 0},
	{Keyword: "car rental", Category: 203}, // Air travel
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds the application configuration
type Config struct {
	TSA      TSAConfig      `yaml:"tsa,omitempty"`
	Trends   TrendsConfig   `yaml:"trends,omitempty"`
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Resample ResampleConfig `yaml:"resample,omitempty"`
	MQTT     MQTTConfig     `yaml:"mqtt,omitempty"`
}

// TSAConfig controls the passenger volume scraper
type TSAConfig struct {
	URLs       []string      `yaml:"urls,omitempty"`
	UserAgent  string        `yaml:"user_agent,omitempty"`
	PageDelay  time.Duration `yaml:"page_delay,omitempty"`  // Minimum gap between page requests (fallback: 1s)
	UseBrowser bool          `yaml:"use_browser,omitempty"` // Fetch pages through headless Chrome
}

// TrendsConfig controls the Google Trends client
type TrendsConfig struct {
	StartDate   string        `yaml:"start_date,omitempty"` // YYYY-MM-DD (fallback: 2023-01-01)
	EndDate     string        `yaml:"end_date,omitempty"`   // YYYY-MM-DD (fallback: today)
	Geo         string        `yaml:"geo,omitempty"`
	Language    string        `yaml:"language,omitempty"`
	TZOffset    int           `yaml:"tz_offset,omitempty"` // Minutes, as Trends expects (fallback: 360)
	Queries     []TrendQuery  `yaml:"queries,omitempty"`
	QueryDelay  time.Duration `yaml:"query_delay,omitempty"`  // Gap between queries (fallback: 10s)
	MaxRetries  int           `yaml:"max_retries,omitempty"`  // Attempts on HTTP 429 (fallback: 3)
	BackoffBase time.Duration `yaml:"backoff_base,omitempty"` // First rate-limit wait, doubled each attempt (fallback: 30s)
	Cookies     []Cookie      `yaml:"cookies,omitempty"`
}

// TrendQuery is one keyword collected from Google Trends
type TrendQuery struct {
	Keyword  string `yaml:"keyword"`
	Category int    `yaml:"category,omitempty"`
	Column   string `yaml:"column,omitempty"` // Defaults to the keyword in snake_case
}

// PathsConfig holds the locations of the pipeline's tables
type PathsConfig struct {
	TrendsCSV string `yaml:"trends_csv,omitempty"`
	TSACSV    string `yaml:"tsa_csv,omitempty"`
	Output    string `yaml:"output,omitempty"` // .csv or .xlsx
}

// ResampleConfig controls weekly bucketing
type ResampleConfig struct {
	Anchor string `yaml:"anchor,omitempty"` // YYYY-MM-DD; windows close on its weekday. Trends weeks are dated by their Sunday start, so use a Sunday.
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `yaml:"name"`
	Value    string  `yaml:"value"`
	Domain   string  `yaml:"domain"`
	Path     string  `yaml:"path"`
	Expires  float64 `yaml:"expires,omitempty"`
	HTTPOnly bool    `yaml:"httpOnly,omitempty"`
	Secure   bool    `yaml:"secure,omitempty"`
	SameSite string  `yaml:"sameSite,omitempty"`
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetTSAURLs returns the TSA pages to scrape
func (c *Config) GetTSAURLs() []string {
	if len(c.TSA.URLs) > 0 {
		return c.TSA.URLs
	}
	return defaultTSAURLs
}

// GetUserAgent returns the User-Agent sent with scraper requests
func (c *Config) GetUserAgent() string {
	if c.TSA.UserAgent != "" {
		return c.TSA.UserAgent
	}
	return defaultUserAgent
}

// GetPageDelay returns the minimum gap between TSA page requests
func (c *Config) GetPageDelay() time.Duration {
	if c.TSA.PageDelay <= 0 {
		return time.Second
	}
	return c.TSA.PageDelay
}

// GetTrendQueries returns the configured queries with columns filled in
func (c *Config) GetTrendQueries() []TrendQuery {
	queries := c.Trends.Queries
	if len(queries) == 0 {
		queries = defaultTrendQueries
	}

	result := make([]TrendQuery, len(queries))
	for i, q := range queries {
		if q.Column == "" {
			q.Column = ColumnName(q.Keyword)
		}
		result[i] = q
	}
	return result
}

// GetTimeframe returns the Trends timeframe "YYYY-MM-DD YYYY-MM-DD"
func (c *Config) GetTimeframe(now time.Time) string {
	start := c.Trends.StartDate
	if start == "" {
		start = "2023-01-01"
	}
	end := c.Trends.EndDate
	if end == "" {
		end = now.Format("2006-01-02")
	}
	return start + " " + end
}

// GetGeo returns the Trends region (fallback: US)
func (c *Config) GetGeo() string {
	if c.Trends.Geo == "" {
		return "US"
	}
	return c.Trends.Geo
}

// GetLanguage returns the Trends host language (fallback: en-US)
func (c *Config) GetLanguage() string {
	if c.Trends.Language == "" {
		return "en-US"
	}
	return c.Trends.Language
}

// GetTZOffset returns the Trends timezone offset in minutes
func (c *Config) GetTZOffset() int {
	if c.Trends.TZOffset == 0 {
		return 360
	}
	return c.Trends.TZOffset
}

// GetQueryDelay returns the minimum gap between Trends queries
func (c *Config) GetQueryDelay() time.Duration {
	if c.Trends.QueryDelay <= 0 {
		return 10 * time.Second
	}
	return c.Trends.QueryDelay
}

// GetMaxRetries returns the number of attempts made when rate limited
func (c *Config) GetMaxRetries() int {
	if c.Trends.MaxRetries <= 0 {
		return 3
	}
	return c.Trends.MaxRetries
}

// GetBackoffBase returns the first wait after a rate-limit response
func (c *Config) GetBackoffBase() time.Duration {
	if c.Trends.BackoffBase <= 0 {
		return 30 * time.Second
	}
	return c.Trends.BackoffBase
}

// GetTrendsCSV returns the trends table path
func (c *Config) GetTrendsCSV() string {
	if c.Paths.TrendsCSV == "" {
		return filepath.Join("data", "flight_related_trends_combined.csv")
	}
	return c.Paths.TrendsCSV
}

// GetTSACSV returns the daily passenger table path
func (c *Config) GetTSACSV() string {
	if c.Paths.TSACSV == "" {
		return filepath.Join("data", "tsa_passenger_data.csv")
	}
	return c.Paths.TSACSV
}

// GetOutput returns the merged dataset path
func (c *Config) GetOutput() string {
	if c.Paths.Output == "" {
		return filepath.Join("data", "full_dataset.csv")
	}
	return c.Paths.Output
}

// GetAnchor returns the configured resampling anchor, or nil if unset
func (c *Config) GetAnchor() (*time.Time, error) {
	if c.Resample.Anchor == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", c.Resample.Anchor)
	if err != nil {
		return nil, fmt.Errorf("parsing resample anchor: %w", err)
	}
	return &t, nil
}

// GetTopicPrefix returns the MQTT topic prefix
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "flightscraper"
	}
	return strings.TrimSuffix(c.MQTT.TopicPrefix, "/")
}

// ColumnName turns a keyword into a table column name ("flight status" -> "flight_status")
func ColumnName(keyword string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(keyword)), " ", "_")
}
