package aggregate

import "strings"

// Column names shared by the inputs and the merged output
const (
	DateColumn            = "date"
	PassengerVolumeColumn = "passenger_volume"
	WeeklyVolumeColumn    = "weekly_passenger_volume"
)

// Table is a delimited-text table held in memory: a header row and string cells.
// Name is only used to label errors and log events.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// NewTable creates an empty table with the given header
func NewTable(name string, header ...string) *Table {
	return &Table{Name: name, Header: header}
}

// Index returns the position of a column, matched case-insensitively, or -1
func (t *Table) Index(column string) int {
	for i, col := range t.Header {
		if strings.EqualFold(strings.TrimSpace(col), column) {
			return i
		}
	}
	return -1
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Cell returns the trimmed cell at row/col, or "" when the row is short
func (t *Table) Cell(row, col int) string {
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// Column returns all trimmed values of the named column
func (t *Table) Column(column string) ([]string, bool) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, false
	}
	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		values[i] = t.Cell(i, idx)
	}
	return values, true
}

func (t *Table) name() string {
	if t.Name == "" {
		return "table"
	}
	return t.Name
}
