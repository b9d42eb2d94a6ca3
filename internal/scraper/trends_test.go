package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrends struct {
	exploreCalls   atomic.Int32
	rateLimitFirst int32 // explore calls answered with 429 before succeeding
	timeline       string
}

func (f *fakeTrends) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "NID", Value: "session"})
	})
	mux.HandleFunc("/trends/api/explore", func(w http.ResponseWriter, r *http.Request) {
		n := f.exploreCalls.Add(1)
		if n <= f.rateLimitFirst {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		if ck, err := r.Cookie("NID"); assert.NoError(t, err) {
			assert.Equal(t, "session", ck.Value)
		}
		assert.Equal(t, "en-US", r.URL.Query().Get("hl"))
		assert.Equal(t, "360", r.URL.Query().Get("tz"))

		var req struct {
			ComparisonItem []struct {
				Keyword string `json:"keyword"`
				Time    string `json:"time"`
				Geo     string `json:"geo"`
			} `json:"comparisonItem"`
			Category int `json:"category"`
		}
		if !assert.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("req")), &req)) || !assert.Len(t, req.ComparisonItem, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		fmt.Fprintf(w, `)]}'
{"widgets":[{"id":"RELATED_QUERIES","token":"x"},{"id":"TIMESERIES","token":"tok-%s","request":{"keyword":%q,"category":%d}}]}`,
			req.ComparisonItem[0].Geo, req.ComparisonItem[0].Keyword, req.Category)
	})
	mux.HandleFunc("/trends/api/widgetdata/multiline", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-US", r.URL.Query().Get("token"))
		assert.JSONEq(t, `{"keyword":"flight status","category":0}`, r.URL.Query().Get("req"))
		fmt.Fprint(w, ")]}',\n"+f.timeline)
	})
	return mux
}

func newTestTrendsClient(t *testing.T, f *fakeTrends) (*TrendsClient, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	c := NewTrendsClient(TrendsOptions{
		BaseURL:     srv.URL,
		Language:    "en-US",
		TZOffset:    360,
		Geo:         "US",
		UserAgent:   "test-agent",
		MaxRetries:  3,
		BackoffBase: 30 * time.Second,
	}, testLogger())

	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

var testQuery = Query{Keyword: "flight status", Timeframe: "2023-01-01 2023-01-31"}

func TestTrendsClient_InterestOverTime(t *testing.T) {
	f := &fakeTrends{timeline: `{"default":{"timelineData":[
		{"time":"1672531200","formattedTime":"Jan 1 – 7, 2023","value":[45],"isPartial":false},
		{"time":"1673136000","formattedTime":"Jan 8 – 14, 2023","value":[47]},
		{"time":"1673740800","formattedTime":"Jan 15 – 21, 2023","value":[50],"isPartial":true}
	]}}`}
	c, waits := newTestTrendsClient(t, f)

	points, err := c.InterestOverTime(context.Background(), testQuery)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, 45.0, points[0].Value)
	assert.Equal(t, "flight status", points[0].Keyword)
	assert.Equal(t, "flight_status", points[0].Column)
	assert.False(t, points[0].IsPartial)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), points[2].Date)
	assert.True(t, points[2].IsPartial)
	assert.Empty(t, *waits)
}

func TestTrendsClient_BacksOffOnRateLimit(t *testing.T) {
	f := &fakeTrends{
		rateLimitFirst: 2,
		timeline:       `{"default":{"timelineData":[{"time":"1672531200","value":[45]}]}}`,
	}
	c, waits := newTestTrendsClient(t, f)

	points, err := c.InterestOverTime(context.Background(), testQuery)
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, *waits)
}

func TestTrendsClient_GivesUpAfterMaxRetries(t *testing.T) {
	f := &fakeTrends{rateLimitFirst: 10}
	c, waits := newTestTrendsClient(t, f)

	_, err := c.InterestOverTime(context.Background(), testQuery)
	require.Error(t, err)

	var rle *RateLimitError
	assert.True(t, errors.As(err, &rle))
	assert.Equal(t, int32(3), f.exploreCalls.Load())
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, *waits)
}

func TestTrendsClient_NoData(t *testing.T) {
	f := &fakeTrends{timeline: `{"default":{"timelineData":[]}}`}
	c, _ := newTestTrendsClient(t, f)

	_, err := c.InterestOverTime(context.Background(), testQuery)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestStripXSSI(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(stripXSSI([]byte(")]}',\n{\"a\":1}"))))
	assert.Equal(t, `{"a":1}`, string(stripXSSI([]byte(`{"a":1}`))))
}
