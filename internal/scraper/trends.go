package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jgoulah/flightscraper/internal/config"
	"github.com/jgoulah/flightscraper/pkg/models"
)

const trendsBaseURL = "https://trends.google.com"

// ErrNoData is returned when Trends has no samples for a query
var ErrNoData = errors.New("no trend data")

// RateLimitError represents an HTTP 429 from Trends
type RateLimitError struct {
	StatusCode int
	Message    string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// TrendsOptions configures a TrendsClient
type TrendsOptions struct {
	BaseURL     string
	Language    string // hl, e.g. "en-US"
	TZOffset    int    // tz, minutes
	Geo         string
	UserAgent   string
	QueryDelay  time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	Cookies     []config.Cookie
}

// TrendsClient fetches interest-over-time series from Google Trends
type TrendsClient struct {
	opts    TrendsOptions
	client  *http.Client
	limiter *rate.Limiter
	cookies []*http.Cookie
	sleep   func(context.Context, time.Duration) error
	logger  *slog.Logger
}

// NewTrendsClient creates a Trends client. Queries are spaced QueryDelay apart.
func NewTrendsClient(opts TrendsOptions, logger *slog.Logger) *TrendsClient {
	if opts.BaseURL == "" {
		opts.BaseURL = trendsBaseURL
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &TrendsClient{
		opts:    opts,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(opts.QueryDelay), 1),
		sleep:   sleepContext,
		logger:  logger,
	}
	for _, ck := range opts.Cookies {
		c.cookies = append(c.cookies, &http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	return c
}

// Query is one keyword request
type Query struct {
	Keyword   string
	Category  int
	Column    string
	Timeframe string // "YYYY-MM-DD YYYY-MM-DD"
}

type timeseriesWidget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type timelinePoint struct {
	Time      string `json:"time"`
	Value     []int  `json:"value"`
	IsPartial bool   `json:"isPartial"`
}

// InterestOverTime returns the weekly interest series for a query. Rate-limit
// responses are retried with exponential backoff starting at BackoffBase.
func (c *TrendsClient) InterestOverTime(ctx context.Context, q Query) ([]models.TrendPoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		points, err := c.fetch(ctx, q)
		if err == nil {
			return points, nil
		}

		var rle *RateLimitError
		if !errors.As(err, &rle) {
			return nil, err
		}
		lastErr = err

		if attempt < c.opts.MaxRetries-1 {
			wait := c.opts.BackoffBase * time.Duration(1<<attempt)
			c.logger.Warn("rate limited by Trends, backing off",
				slog.String("keyword", q.Keyword),
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", c.opts.MaxRetries),
				slog.Duration("wait", wait))
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("rate limited after %d attempts: %w", c.opts.MaxRetries, lastErr)
}

func (c *TrendsClient) fetch(ctx context.Context, q Query) ([]models.TrendPoint, error) {
	if len(c.cookies) == 0 {
		if err := c.loadSessionCookies(ctx); err != nil {
			return nil, err
		}
	}

	widget, err := c.explore(ctx, q)
	if err != nil {
		return nil, err
	}

	params := c.baseParams()
	params.Set("req", string(widget.Request))
	params.Set("token", widget.Token)

	body, err := c.get(ctx, "/trends/api/widgetdata/multiline", params)
	if err != nil {
		return nil, fmt.Errorf("fetching timeline: %w", err)
	}

	var resp struct {
		Default struct {
			TimelineData []timelinePoint `json:"timelineData"`
		} `json:"default"`
	}
	if err := json.Unmarshal(stripXSSI(body), &resp); err != nil {
		return nil, fmt.Errorf("parsing timeline: %w", err)
	}

	if len(resp.Default.TimelineData) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoData, q.Keyword)
	}

	column := q.Column
	if column == "" {
		column = config.ColumnName(q.Keyword)
	}

	points := make([]models.TrendPoint, 0, len(resp.Default.TimelineData))
	for _, p := range resp.Default.TimelineData {
		secs, err := strconv.ParseInt(p.Time, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing timeline time %q: %w", p.Time, err)
		}
		if len(p.Value) == 0 {
			continue
		}
		points = append(points, models.TrendPoint{
			Date:      time.Unix(secs, 0).UTC().Truncate(24 * time.Hour),
			Keyword:   q.Keyword,
			Column:    column,
			Value:     float64(p.Value[0]),
			IsPartial: p.IsPartial,
		})
	}

	return points, nil
}

// explore requests the widget token for the TIMESERIES widget
func (c *TrendsClient) explore(ctx context.Context, q Query) (*timeseriesWidget, error) {
	payload := map[string]any{
		"comparisonItem": []map[string]string{{
			"keyword": q.Keyword,
			"time":    q.Timeframe,
			"geo":     c.opts.Geo,
		}},
		"category": q.Category,
		"property": "",
	}
	reqJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding explore request: %w", err)
	}

	params := c.baseParams()
	params.Set("req", string(reqJSON))

	body, err := c.get(ctx, "/trends/api/explore", params)
	if err != nil {
		return nil, fmt.Errorf("exploring %q: %w", q.Keyword, err)
	}

	var resp struct {
		Widgets []timeseriesWidget `json:"widgets"`
	}
	if err := json.Unmarshal(stripXSSI(body), &resp); err != nil {
		return nil, fmt.Errorf("parsing explore response: %w", err)
	}

	for i := range resp.Widgets {
		if resp.Widgets[i].ID == "TIMESERIES" {
			return &resp.Widgets[i], nil
		}
	}
	return nil, fmt.Errorf("%w for %q: no TIMESERIES widget", ErrNoData, q.Keyword)
}

// loadSessionCookies picks up the NID cookie the API expects, the same way a
// browser visiting the Trends home page would
func (c *TrendsClient) loadSessionCookies(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.opts.BaseURL+"/?geo="+url.QueryEscape(c.opts.Geo), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("loading Trends session: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{StatusCode: resp.StatusCode, Message: "rate limited loading Trends session"}
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == "NID" {
			c.cookies = append(c.cookies, &http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}
	c.logger.Debug("loaded Trends session", slog.Int("cookies", len(c.cookies)))
	return nil
}

func (c *TrendsClient) baseParams() url.Values {
	params := url.Values{}
	params.Set("hl", c.opts.Language)
	params.Set("tz", strconv.Itoa(c.opts.TZOffset))
	return params
}

func (c *TrendsClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.opts.BaseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("rate limited (status %d)", resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK {
		preview := body
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(preview))
	}

	return body, nil
}

// stripXSSI drops the ")]}'" guard Google prefixes to JSON responses
func stripXSSI(body []byte) []byte {
	if i := bytes.IndexByte(body, '{'); i >= 0 {
		return body[i:]
	}
	return body
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
