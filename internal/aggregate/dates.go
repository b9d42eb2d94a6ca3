package aggregate

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Layouts seen in the trend exports (ISO, with or without a time part) and on
// the TSA passenger pages (US month/day/year).
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses a calendar date and normalizes it to midnight UTC, dropping
// any time-of-day and zone so that dates from both inputs compare exactly.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// FormatDate writes a date in the output representation (YYYY-MM-DD)
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Day truncates t to its calendar date at midnight UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayNumber counts days since the Unix epoch for a normalized date
func dayNumber(t time.Time) int64 {
	return Day(t).Unix() / 86400
}
