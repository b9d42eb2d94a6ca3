package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/flightscraper/internal/config"
	"github.com/jgoulah/flightscraper/internal/database"
	"github.com/jgoulah/flightscraper/internal/scraper"
	"github.com/spf13/cobra"
)

var (
	fetchBrowser bool
	fetchVisible bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [source]",
	Short: "Fetch data from a source into the database",
	Long: `Collects data from the specified source and stores it in the local SQLite database.
Rows already stored are kept, so fetching is safe to repeat.

Available sources: tsa, trends`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"tsa", "trends"},
	RunE:      runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchBrowser, "browser", false, "Fetch TSA pages through headless Chrome")
	fetchCmd.Flags().BoolVar(&fetchVisible, "visible", false, "Show browser window (for debugging)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Fetch started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	source := args[0]
	if source != "tsa" && source != "trends" {
		return fmt.Errorf("unknown source: %s (available: tsa, trends)", source)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch source {
	case "tsa":
		return fetchTSA(ctx, cfg, db)
	default:
		return fetchTrends(ctx, cfg, db)
	}
}

func fetchTSA(ctx context.Context, cfg *config.Config, db *database.DB) error {
	s := scraper.NewTSAScraper(cfg.GetTSAURLs(), cfg.GetUserAgent(), cfg.GetPageDelay(), slog.Default())
	s.SetBrowser(fetchBrowser || cfg.TSA.UseBrowser, fetchVisible)

	fmt.Printf("Fetching %d TSA pages...\n", len(cfg.GetTSAURLs()))
	rows, err := s.Scrape(ctx)
	if err != nil {
		return fmt.Errorf("scraping TSA: %w", err)
	}

	added := 0
	for i := range rows {
		ok, err := db.InsertPassengerVolume(&rows[i])
		if err != nil {
			return fmt.Errorf("storing %s: %w", rows[i].Date.Format("2006-01-02"), err)
		}
		if ok {
			added++
		}
	}

	printSuccess("Stored %s new days (%s already present)",
		humanize.Comma(int64(added)), humanize.Comma(int64(len(rows)-added)))
	return nil
}

func fetchTrends(ctx context.Context, cfg *config.Config, db *database.DB) error {
	client := scraper.NewTrendsClient(scraper.TrendsOptions{
		Language:    cfg.GetLanguage(),
		TZOffset:    cfg.GetTZOffset(),
		Geo:         cfg.GetGeo(),
		UserAgent:   cfg.GetUserAgent(),
		QueryDelay:  cfg.GetQueryDelay(),
		MaxRetries:  cfg.GetMaxRetries(),
		BackoffBase: cfg.GetBackoffBase(),
		Cookies:     cfg.Trends.Cookies,
	}, slog.Default())

	timeframe := cfg.GetTimeframe(time.Now())
	queries := cfg.GetTrendQueries()

	failed := 0
	for i, q := range queries {
		fmt.Printf("[%d/%d] Fetching %q (%s)... ", i+1, len(queries), q.Keyword, timeframe)

		points, err := client.InterestOverTime(ctx, scraper.Query{
			Keyword:   q.Keyword,
			Category:  q.Category,
			Column:    q.Column,
			Timeframe: timeframe,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Println("FAILED")
			slog.Warn("skipping trend query", slog.String("keyword", q.Keyword), slog.String("error", err.Error()))
			failed++
			continue
		}

		added := 0
		for j := range points {
			ok, err := db.UpsertTrendPoint(&points[j])
			if err != nil {
				return fmt.Errorf("storing %q: %w", q.Keyword, err)
			}
			if ok {
				added++
			}
		}
		fmt.Printf("✓ %d weeks (%d new, %d refreshed)\n", len(points), added, len(points)-added)
	}

	if failed == len(queries) {
		return fmt.Errorf("all %d trend queries failed", failed)
	}
	if failed > 0 {
		printWarning("%d of %d trend queries failed", failed, len(queries))
	} else {
		printSuccess("Fetched %d trend queries", len(queries))
	}
	return nil
}
