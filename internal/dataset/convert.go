package dataset

import (
	"sort"
	"strconv"
	"time"

	"github.com/jgoulah/flightscraper/internal/aggregate"
	"github.com/jgoulah/flightscraper/pkg/models"
)

// TSA pages publish dates as month/day/year; exports keep that format
const passengerDateFormat = "01/02/2006"

// PassengerTable builds the daily passenger table (date, passenger_volume)
// from stored rows, in date order
func PassengerTable(volumes []models.PassengerVolume) *aggregate.Table {
	sorted := make([]models.PassengerVolume, len(volumes))
	copy(sorted, volumes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	t := aggregate.NewTable("tsa_passenger_data", aggregate.DateColumn, aggregate.PassengerVolumeColumn)
	t.Rows = make([][]string, len(sorted))
	for i, v := range sorted {
		t.Rows[i] = []string{v.Date.Format(passengerDateFormat), strconv.FormatInt(v.Volume, 10)}
	}
	return t
}

// TrendTable pivots stored trend samples into one row per date with a column
// per trend. Only dates with a sample for every column are kept; the second
// return value counts the dates dropped for missing samples.
func TrendTable(points []models.TrendPoint, columns []string) (*aggregate.Table, int) {
	byDate := make(map[time.Time]map[string]float64)
	for _, p := range points {
		d := aggregate.Day(p.Date)
		if byDate[d] == nil {
			byDate[d] = make(map[string]float64, len(columns))
		}
		byDate[d][p.Column] = p.Value
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	header := append([]string{aggregate.DateColumn}, columns...)
	t := aggregate.NewTable("flight_related_trends_combined", header...)

	dropped := 0
	for _, d := range dates {
		values := byDate[d]
		row := make([]string, 0, len(header))
		row = append(row, aggregate.FormatDate(d))

		complete := true
		for _, col := range columns {
			v, ok := values[col]
			if !ok {
				complete = false
				break
			}
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if !complete {
			dropped++
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	return t, dropped
}
