package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trendTable(rows ...[]string) *Table {
	return &Table{Name: "trends", Header: []string{"date", "flight_status"}, Rows: rows}
}

func TestJoin_Match(t *testing.T) {
	weekly := WeeklyTable([]WeeklyRecord{{WeekEnd: date("2023-01-07"), Value: 1000}})

	merged, summary, err := Join(trendTable([]string{"2023-01-07", "45"}), weekly)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "flight_status", "weekly_passenger_volume"}, merged.Header)
	assert.Equal(t, [][]string{{"2023-01-07", "45", "1000"}}, merged.Rows)
	assert.Equal(t, 1, summary.Rows)
	assert.Equal(t, date("2023-01-07"), summary.First)
	assert.Equal(t, date("2023-01-07"), summary.Last)
}

func TestJoin_NoOverlap(t *testing.T) {
	weekly := WeeklyTable([]WeeklyRecord{{WeekEnd: date("2023-01-07"), Value: 1000}})

	merged, summary, err := Join(trendTable([]string{"2023-01-14", "45"}), weekly)
	require.NoError(t, err)

	assert.Empty(t, merged.Rows)
	assert.Equal(t, []string{"date", "flight_status", "weekly_passenger_volume"}, merged.Header)
	assert.Equal(t, 0, summary.Rows)
	assert.True(t, summary.First.IsZero())
}

func TestJoin_SortsAndNormalizesDates(t *testing.T) {
	trends := &Table{
		Name:   "trends",
		Header: []string{"date", "flight_status", "airport_parking"},
		Rows: [][]string{
			{"2023-01-21 00:00:00", "50", "12"},
			{"2023-01-07", "45", "10"},
			{"2023-01-14", "47", "11"},
			{"2022-12-31", "40", "9"},
		},
	}
	daily := &Table{
		Name:   "weekly",
		Header: []string{"weekly_passenger_volume", "date"},
		Rows: [][]string{
			{"3000", "01/21/2023"},
			{"1000", "01/07/2023"},
			{"2000", "01/14/2023"},
			{"4000", "01/28/2023"},
		},
	}

	merged, summary, err := Join(trends, daily)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"2023-01-07", "45", "10", "1000"},
		{"2023-01-14", "47", "11", "2000"},
		{"2023-01-21", "50", "12", "3000"},
	}, merged.Rows)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, date("2023-01-07"), summary.First)
	assert.Equal(t, date("2023-01-21"), summary.Last)
}

func TestJoin_SwappedInputsMatchSameKeys(t *testing.T) {
	trends := trendTable(
		[]string{"2023-01-07", "45"},
		[]string{"2023-01-14", "47"},
		[]string{"2023-02-04", "60"},
	)
	weekly := WeeklyTable([]WeeklyRecord{
		{WeekEnd: date("2023-01-07"), Value: 1000},
		{WeekEnd: date("2023-01-14"), Value: 2000},
		{WeekEnd: date("2023-01-21"), Value: 3000},
	})

	ab, _, err := Join(trends, weekly)
	require.NoError(t, err)
	ba, _, err := Join(weekly, trends)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "flight_status", "weekly_passenger_volume"}, ab.Header)
	assert.Equal(t, []string{"date", "weekly_passenger_volume", "flight_status"}, ba.Header)
	require.Equal(t, ab.Len(), ba.Len())

	for i := range ab.Rows {
		assert.Equal(t, ab.Rows[i][0], ba.Rows[i][0])
		assert.Equal(t, ab.Rows[i][1], ba.Rows[i][2])
		assert.Equal(t, ab.Rows[i][2], ba.Rows[i][1])
	}
}

func TestJoin_Errors(t *testing.T) {
	weekly := WeeklyTable([]WeeklyRecord{{WeekEnd: date("2023-01-07"), Value: 1000}})

	t.Run("missing key on left", func(t *testing.T) {
		left := &Table{Name: "trends", Header: []string{"week", "flight_status"}}
		_, _, err := Join(left, weekly)
		var target *JoinKeyError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "trends", target.Table)
	})

	t.Run("missing key on right", func(t *testing.T) {
		right := &Table{Name: "weekly", Header: []string{"weekly_passenger_volume"}}
		_, _, err := Join(trendTable(), right)
		var target *JoinKeyError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "weekly", target.Table)
	})

	t.Run("unparseable date", func(t *testing.T) {
		_, _, err := Join(trendTable([]string{"last week", "45"}), weekly)
		var target *ParseError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "last week", target.Value)
	})

	t.Run("duplicate date", func(t *testing.T) {
		_, _, err := Join(trendTable([]string{"2023-01-07", "45"}, []string{"2023-01-07", "46"}), weekly)
		assert.ErrorIs(t, err, ErrDuplicateDate)
	})

	t.Run("column collision", func(t *testing.T) {
		left := &Table{
			Name:   "trends",
			Header: []string{"date", "weekly_passenger_volume"},
			Rows:   [][]string{{"2023-01-07", "1"}},
		}
		_, _, err := Join(left, weekly)
		var target *SchemaError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "weekly_passenger_volume", target.Column)
	})

	t.Run("column collision ignores case", func(t *testing.T) {
		left := &Table{
			Name:   "trends",
			Header: []string{"date", " Weekly_Passenger_Volume"},
			Rows:   [][]string{{"2023-01-07", "1"}},
		}
		_, _, err := Join(left, weekly)
		var target *SchemaError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "weekly", target.Table)
	})
}
