package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jgoulah/flightscraper/pkg/models"
)

// Pages fetched at the same time
const tsaConcurrency = 2

var tsaHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
}

// StatusError represents a non-200 page response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
}

// TSAScraper collects daily checkpoint passenger counts from the TSA
// passenger volume pages
type TSAScraper struct {
	urls       []string
	userAgent  string
	client     *http.Client
	limiter    *rate.Limiter
	useBrowser bool
	visible    bool
	logger     *slog.Logger
}

// NewTSAScraper creates a scraper for the given pages, requesting at most one
// page per pageDelay
func NewTSAScraper(urls []string, userAgent string, pageDelay time.Duration, logger *slog.Logger) *TSAScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &TSAScraper{
		urls:      urls,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(pageDelay), 1),
		logger:    logger,
	}
}

// SetBrowser switches page fetches to headless Chrome
func (s *TSAScraper) SetBrowser(enabled, visible bool) {
	s.useBrowser = enabled
	s.visible = visible
}

// Scrape fetches every page and returns the combined rows sorted by date.
// A date found on several pages keeps the row from the earliest page in the
// list. Failing pages are logged and skipped; the scrape only fails when no
// page could be read.
func (s *TSAScraper) Scrape(ctx context.Context) ([]models.PassengerVolume, error) {
	if len(s.urls) == 0 {
		return nil, fmt.Errorf("no TSA pages configured")
	}

	pages := make([][]models.PassengerVolume, len(s.urls))
	pageErrs := make([]error, len(s.urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tsaConcurrency)

	for i, url := range s.urls {
		i, url := i, url
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}

			s.logger.Info("fetching TSA page", slog.String("url", url))
			rows, err := s.ScrapePage(gctx, url)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				s.logger.Warn("skipping TSA page", slog.String("url", url), slog.String("error", err.Error()))
				pageErrs[i] = err
				return nil
			}

			s.logger.Info("parsed TSA page", slog.String("url", url), slog.Int("rows", len(rows)))
			pages[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scraping TSA pages: %w", err)
	}

	failed := 0
	for _, err := range pageErrs {
		if err != nil {
			failed++
		}
	}
	if failed == len(s.urls) {
		return nil, fmt.Errorf("all %d TSA pages failed: %w", failed, errors.Join(pageErrs...))
	}

	return mergePages(pages), nil
}

// ScrapePage fetches and parses a single page
func (s *TSAScraper) ScrapePage(ctx context.Context, url string) ([]models.PassengerVolume, error) {
	html, err := s.FetchPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParsePassengerTable(strings.NewReader(html), url)
}

// FetchPage returns the HTML of a page, rendered by Chrome when the browser
// is enabled
func (s *TSAScraper) FetchPage(ctx context.Context, url string) (string, error) {
	if s.useBrowser {
		browserCtx, cancel := NewBrowserContext(ctx, BrowserOptions{Visible: s.visible, UserAgent: s.userAgent})
		defer cancel()

		return FetchHTML(browserCtx, url, "tbody", tsaHeaders)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	for k, v := range tsaHeaders {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	return string(body), nil
}

// ParsePassengerTable reads the rows of the first <tbody> in a TSA page.
// Header rows and rows whose date or count cannot be parsed are skipped.
func ParsePassengerTable(r io.Reader, source string) ([]models.PassengerVolume, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, fmt.Errorf("could not find <tbody> in %s", source)
	}

	var results []models.PassengerVolume
	tbody.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		volumeText := strings.TrimSpace(cells.Eq(1).Text())
		if dateText == "" || volumeText == "" || strings.Contains(dateText, "Date") || strings.Contains(volumeText, "Numbers") {
			return
		}

		volume, err := parseVolume(volumeText)
		if err != nil {
			return
		}
		date, err := time.Parse("1/2/2006", dateText)
		if err != nil {
			return
		}

		results = append(results, models.PassengerVolume{
			Date:   date,
			Volume: volume,
			Source: source,
		})
	})

	return results, nil
}

// parseVolume parses a passenger count such as "2,345,678"
func parseVolume(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	return strconv.ParseInt(s, 10, 64)
}

func mergePages(pages [][]models.PassengerVolume) []models.PassengerVolume {
	seen := make(map[string]bool)
	var merged []models.PassengerVolume

	for _, rows := range pages {
		for _, row := range rows {
			key := row.Date.Format("2006-01-02")
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, row)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}
