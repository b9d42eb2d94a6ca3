package aggregate

import (
	"log/slog"
	"strconv"
	"time"
)

// Pipeline resamples the daily passenger table to weeks and joins it with the
// weekly trend table.
type Pipeline struct {
	DailyDateColumn  string
	DailyValueColumn string
	Anchor           *time.Time
	Logger           *slog.Logger
}

// Stats are the counts a run reports for sanity-checking coverage
type Stats struct {
	TrendRows  int
	DailyRows  int
	WeeklyRows int
	MergedRows int
	First      time.Time
	Last       time.Time
}

// Result is the merged table and the run's counts
type Result struct {
	Table  *Table
	Weekly []WeeklyRecord
	Stats  Stats
}

// NewPipeline creates a pipeline reading the standard daily columns
func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		DailyDateColumn:  DateColumn,
		DailyValueColumn: PassengerVolumeColumn,
		Logger:           logger,
	}
}

// Run executes the pipeline and stops at the first error
func (p *Pipeline) Run(trends, daily *Table) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("loaded inputs",
		slog.String("trends_table", trends.name()),
		slog.Int("trend_rows", trends.Len()),
		slog.String("daily_table", daily.name()),
		slog.Int("daily_rows", daily.Len()))

	records, err := ParseDaily(daily, p.DailyDateColumn, p.DailyValueColumn)
	if err != nil {
		return nil, err
	}

	var opts []ResampleOption
	if p.Anchor != nil {
		opts = append(opts, WithAnchor(*p.Anchor))
	}
	weekly, err := Resample(records, opts...)
	if err != nil {
		return nil, err
	}
	if len(weekly) > 0 {
		logger.Info("resampled daily counts to weeks",
			slog.Int("weeks", len(weekly)),
			slog.String("first_week_end", FormatDate(weekly[0].WeekEnd)),
			slog.String("last_week_end", FormatDate(weekly[len(weekly)-1].WeekEnd)))
	}

	if err := ValidateNumeric(trends); err != nil {
		return nil, err
	}

	merged, summary, err := Join(trends, WeeklyTable(weekly))
	if err != nil {
		return nil, err
	}

	stats := Stats{
		TrendRows:  trends.Len(),
		DailyRows:  len(records),
		WeeklyRows: len(weekly),
		MergedRows: summary.Rows,
		First:      summary.First,
		Last:       summary.Last,
	}

	if summary.Rows == 0 {
		logger.Warn("no weeks matched between trends and passenger data",
			slog.Int("trend_rows", stats.TrendRows),
			slog.Int("weekly_rows", stats.WeeklyRows))
	} else {
		logger.Info("merged datasets",
			slog.Int("rows", summary.Rows),
			slog.String("first", FormatDate(summary.First)),
			slog.String("last", FormatDate(summary.Last)))
	}

	return &Result{Table: merged, Weekly: weekly, Stats: stats}, nil
}

// ValidateNumeric checks that every non-date cell of the table is a number
func ValidateNumeric(t *Table) error {
	di := t.Index(DateColumn)
	if di < 0 {
		return &JoinKeyError{Table: t.name(), Column: DateColumn}
	}
	if len(t.Header) < 2 {
		return &SchemaError{Table: t.name(), Column: "", Reason: "no value columns besides date"}
	}

	for i := range t.Rows {
		for col, name := range t.Header {
			if col == di {
				continue
			}
			v := t.Cell(i, col)
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return &ParseError{Table: t.name(), Row: i + 1, Column: name, Value: v, Err: err}
			}
		}
	}
	return nil
}
