package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/jgoulah/flightscraper/internal/scraper"
	"github.com/spf13/cobra"
)

const trendsExploreURL = "https://trends.google.com/trends/explore?geo=%s&q=flight%%20status"

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Capture Google Trends cookies from a browser session",
	Long: `Opens a browser window on Google Trends. Once the chart has loaded (solve any
consent or captcha page first), press Enter here and the session cookies are saved
to the config file for 'flightscraper fetch trends'.`,
	RunE: runCookies,
}

func init() {
	rootCmd.AddCommand(cookiesCmd)
}

func runCookies(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println("Opening browser on Google Trends...")
	fmt.Println("Wait for the chart to load, then press Enter here to save cookies...")

	ctx, cancel := scraper.NewBrowserContext(context.Background(), scraper.BrowserOptions{
		Visible:   true,
		UserAgent: cfg.GetUserAgent(),
		Timeout:   10 * time.Minute,
	})
	defer cancel()

	if err := scraper.SetCookies(ctx, cfg.Trends.Cookies); err != nil {
		return fmt.Errorf("restoring saved cookies: %w", err)
	}

	if err := chromedp.Run(ctx, chromedp.Navigate(fmt.Sprintf(trendsExploreURL, cfg.GetGeo()))); err != nil {
		return fmt.Errorf("navigating to Google Trends: %w", err)
	}

	fmt.Scanln()

	fmt.Println("Extracting cookies...")
	cookies, err := scraper.ExtractCookies(ctx)
	if err != nil {
		return fmt.Errorf("extracting cookies: %w", err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies found - make sure the Trends page loaded")
	}

	cfg.Trends.Cookies = cookies
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	printSuccess("Saved %d cookies for Google Trends", len(cookies))
	return nil
}
