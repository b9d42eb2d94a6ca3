package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/flightscraper/internal/scraper"
	"github.com/spf13/cobra"
)

var (
	inspectBrowser bool
	inspectVisible bool
	inspectDump    string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [url]",
	Short: "Fetch one TSA page and show how its table parsed",
	Long: `Fetches a single TSA passenger volume page (the first configured page by default)
and prints the parsed row count, date range and sample rows. Use --dump to save the
raw HTML when the table layout changes or the site blocks plain HTTP requests.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectBrowser, "browser", false, "Fetch through headless Chrome")
	inspectCmd.Flags().BoolVar(&inspectVisible, "visible", false, "Show browser window")
	inspectCmd.Flags().StringVar(&inspectDump, "dump", "", "Write the fetched HTML to this file")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := cfg.GetTSAURLs()[0]
	if len(args) == 1 {
		url = args[0]
	}

	ctx := context.Background()
	s := scraper.NewTSAScraper([]string{url}, cfg.GetUserAgent(), 0, slog.Default())
	s.SetBrowser(inspectBrowser, inspectVisible)

	fmt.Printf("Fetching %s...\n", url)
	html, err := s.FetchPage(ctx, url)
	if err != nil {
		return fmt.Errorf("fetching page: %w", err)
	}
	fmt.Printf("Fetched %s of HTML\n", humanize.Bytes(uint64(len(html))))

	if inspectDump != "" {
		if err := os.WriteFile(inspectDump, []byte(html), 0644); err != nil {
			return fmt.Errorf("writing HTML: %w", err)
		}
		printSuccess("Saved HTML to %s", inspectDump)
	}

	rows, err := scraper.ParsePassengerTable(strings.NewReader(html), url)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		printWarning("Table found but no rows parsed; check the date and count columns")
		return nil
	}

	first, last := rows[0].Date, rows[0].Date
	for _, r := range rows {
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	printSuccess("Parsed %d rows from %s to %s", len(rows), first.Format("2006-01-02"), last.Format("2006-01-02"))

	sample := rows
	if len(sample) > 5 {
		sample = sample[:5]
	}
	var table [][]string
	for _, r := range sample {
		table = append(table, []string{r.Date.Format("2006-01-02"), humanize.Comma(r.Volume)})
	}
	return renderTable(os.Stdout, []string{"Date", "Passengers"}, table)
}
