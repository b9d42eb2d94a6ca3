package aggregate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// WindowDays is the fixed width of a resampling window
const WindowDays = 7

// DailyRecord is a single day's passenger count
type DailyRecord struct {
	Date  time.Time
	Value int64
}

// WeeklyRecord is the sum of daily counts over (WeekEnd-7d, WeekEnd]
type WeeklyRecord struct {
	WeekEnd time.Time
	Value   int64
}

// ResampleOption configures Resample
type ResampleOption func(*resampleOptions)

type resampleOptions struct {
	anchor *time.Time
}

// WithAnchor shifts the windows so that anchor falls on a window closing date.
// The first window still contains the first record.
func WithAnchor(anchor time.Time) ResampleOption {
	return func(o *resampleOptions) {
		a := Day(anchor)
		o.anchor = &a
	}
}

// ParseDaily converts a daily table into records. Thousands separators are
// stripped from the value column before parsing.
func ParseDaily(t *Table, dateCol, valueCol string) ([]DailyRecord, error) {
	di := t.Index(dateCol)
	if di < 0 {
		return nil, &JoinKeyError{Table: t.name(), Column: dateCol}
	}
	vi := t.Index(valueCol)
	if vi < 0 {
		return nil, &SchemaError{Table: t.name(), Column: valueCol, Reason: "column not found"}
	}

	records := make([]DailyRecord, 0, t.Len())
	seen := make(map[int64]int, t.Len())

	for i := range t.Rows {
		row := i + 1
		dateStr := t.Cell(i, di)
		date, err := ParseDate(dateStr)
		if err != nil {
			return nil, &ParseError{Table: t.name(), Row: row, Column: dateCol, Value: dateStr, Err: err}
		}

		key := dayNumber(date)
		if first, ok := seen[key]; ok {
			return nil, &ParseError{
				Table:  t.name(),
				Row:    row,
				Column: dateCol,
				Value:  dateStr,
				Err:    fmt.Errorf("%w (first seen on row %d)", ErrDuplicateDate, first),
			}
		}
		seen[key] = row

		valueStr := t.Cell(i, vi)
		value, err := parseCount(valueStr)
		if err != nil {
			return nil, &SchemaError{Table: t.name(), Column: valueCol, Row: row, Reason: err.Error()}
		}

		records = append(records, DailyRecord{Date: date, Value: value})
	}

	return records, nil
}

// parseCount parses a non-negative integer such as "2,345,678"
func parseCount(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count: %d", n)
	}
	return n, nil
}

// Resample buckets daily records into contiguous 7-day windows and sums each.
//
// Windows are right-closed and labeled by their closing date. Without an
// anchor the series starts the day before the first record, so the first
// window closes six days after it. Every window up to the one holding the
// last record is emitted, including empty ones.
func Resample(records []DailyRecord, opts ...ResampleOption) ([]WeeklyRecord, error) {
	if len(records) == 0 {
		return []WeeklyRecord{}, nil
	}

	var o resampleOptions
	for _, opt := range opts {
		opt(&o)
	}

	sorted := make([]DailyRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i := 1; i < len(sorted); i++ {
		if dayNumber(sorted[i].Date) == dayNumber(sorted[i-1].Date) {
			return nil, fmt.Errorf("resampling %s: %w", FormatDate(sorted[i].Date), ErrDuplicateDate)
		}
	}

	start := dayNumber(sorted[0].Date) - 1
	if o.anchor != nil {
		start -= floorMod(start-dayNumber(*o.anchor), WindowDays)
	}
	last := dayNumber(sorted[len(sorted)-1].Date)

	n := (last - start + WindowDays - 1) / WindowDays
	sums := make([]int64, n)
	for _, r := range sorted {
		k := (dayNumber(r.Date) - start - 1) / WindowDays
		sums[k] += r.Value
	}

	origin := time.Unix(start*86400, 0).UTC()
	weekly := make([]WeeklyRecord, n)
	for k := range sums {
		weekly[k] = WeeklyRecord{
			WeekEnd: origin.AddDate(0, 0, WindowDays*(k+1)),
			Value:   sums[k],
		}
	}

	return weekly, nil
}

// WeeklyTable renders weekly records as a table keyed by date, with the value
// column named so it cannot clash with trend columns.
func WeeklyTable(weekly []WeeklyRecord) *Table {
	t := NewTable("weekly", DateColumn, WeeklyVolumeColumn)
	t.Rows = make([][]string, len(weekly))
	for i, w := range weekly {
		t.Rows[i] = []string{FormatDate(w.WeekEnd), strconv.FormatInt(w.Value, 10)}
	}
	return t
}

func floorMod(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
