package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tsaPage = `<html><body>
<table>
  <thead><tr><th>Date</th><th>Numbers</th></tr></thead>
  <tbody>
    <tr><td>Date</td><td>Numbers</td></tr>
    <tr><td>1/3/2023</td><td>2,012,345</td></tr>
    <tr><td>1/2/2023</td><td> 2,345,678 </td></tr>
    <tr><td>not a date</td><td>100</td></tr>
    <tr><td>1/1/2023</td><td>n/a</td></tr>
    <tr><td>12/31/2022</td></tr>
  </tbody>
</table>
</body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestParsePassengerTable(t *testing.T) {
	rows, err := ParsePassengerTable(strings.NewReader(tsaPage), "page")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, int64(2012345), rows[0].Volume)
	assert.Equal(t, "page", rows[0].Source)
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), rows[1].Date)
	assert.Equal(t, int64(2345678), rows[1].Volume)
}

func TestParsePassengerTable_NoTbody(t *testing.T) {
	_, err := ParsePassengerTable(strings.NewReader("<html><p>blocked</p></html>"), "page")
	assert.Error(t, err)
}

func tsaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/travel/passenger-volumes", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, `<table><tbody>
			<tr><td>1/3/2023</td><td>3,000</td></tr>
			<tr><td>1/2/2023</td><td>2,000</td></tr>
		</tbody></table>`)
	})
	mux.HandleFunc("/travel/passenger-volumes/2022", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<table><tbody>
			<tr><td>1/2/2023</td><td>9,999</td></tr>
			<tr><td>12/31/2022</td><td>1,000</td></tr>
		</tbody></table>`)
	})
	mux.HandleFunc("/travel/passenger-volumes/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestTSAScraper_Scrape(t *testing.T) {
	srv := tsaServer(t)

	s := NewTSAScraper([]string{
		srv.URL + "/travel/passenger-volumes",
		srv.URL + "/travel/passenger-volumes/broken",
		srv.URL + "/travel/passenger-volumes/2022",
	}, "test-agent", 0, testLogger())

	rows, err := s.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, int64(1000), rows[0].Volume)

	// the current-year page is listed first and wins for overlapping dates
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), rows[1].Date)
	assert.Equal(t, int64(2000), rows[1].Volume)
	assert.Equal(t, srv.URL+"/travel/passenger-volumes", rows[1].Source)

	assert.Equal(t, int64(3000), rows[2].Volume)
}

func TestTSAScraper_AllPagesFail(t *testing.T) {
	srv := tsaServer(t)

	s := NewTSAScraper([]string{srv.URL + "/travel/passenger-volumes/broken"}, "test-agent", 0, testLogger())

	_, err := s.Scrape(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestTSAScraper_NoPages(t *testing.T) {
	s := NewTSAScraper(nil, "test-agent", 0, testLogger())
	_, err := s.Scrape(context.Background())
	assert.Error(t, err)
}
