package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Summary describes a merged result for coverage checks
type Summary struct {
	Rows  int
	First time.Time
	Last  time.Time
}

// keyedTable is a table indexed by its normalized date key
type keyedTable struct {
	dates   map[int64]time.Time
	rows    map[int64][]string
	columns []int // non-key column indexes, in header order
}

func indexByDate(t *Table) (*keyedTable, error) {
	di := t.Index(DateColumn)
	if di < 0 {
		return nil, &JoinKeyError{Table: t.name(), Column: DateColumn}
	}

	kt := &keyedTable{
		dates: make(map[int64]time.Time, t.Len()),
		rows:  make(map[int64][]string, t.Len()),
	}
	for i := range t.Header {
		if i != di {
			kt.columns = append(kt.columns, i)
		}
	}

	for i := range t.Rows {
		dateStr := t.Cell(i, di)
		date, err := ParseDate(dateStr)
		if err != nil {
			return nil, &ParseError{Table: t.name(), Row: i + 1, Column: DateColumn, Value: dateStr, Err: err}
		}
		key := dayNumber(date)
		if _, dup := kt.rows[key]; dup {
			return nil, &ParseError{Table: t.name(), Row: i + 1, Column: DateColumn, Value: dateStr, Err: ErrDuplicateDate}
		}

		values := make([]string, len(kt.columns))
		for j, col := range kt.columns {
			values[j] = t.Cell(i, col)
		}
		kt.dates[key] = date
		kt.rows[key] = values
	}

	return kt, nil
}

// Join inner-joins two tables on their date column. The result holds the date
// followed by the left table's other columns and then the right table's,
// sorted ascending by date. Dates present on only one side are dropped; no
// overlap gives an empty table.
func Join(left, right *Table) (*Table, Summary, error) {
	lk, err := indexByDate(left)
	if err != nil {
		return nil, Summary{}, err
	}
	rk, err := indexByDate(right)
	if err != nil {
		return nil, Summary{}, err
	}

	header := []string{DateColumn}
	seen := map[string]string{}
	for _, side := range []struct {
		t  *Table
		kt *keyedTable
	}{{left, lk}, {right, rk}} {
		for _, col := range side.kt.columns {
			name := side.t.Header[col]
			key := strings.ToLower(strings.TrimSpace(name))
			if owner, ok := seen[key]; ok {
				return nil, Summary{}, &SchemaError{
					Table:  side.t.name(),
					Column: name,
					Reason: fmt.Sprintf("column also present in %s", owner),
				}
			}
			seen[key] = side.t.name()
			header = append(header, name)
		}
	}

	keys := make([]int64, 0, len(lk.rows))
	for key := range lk.rows {
		if _, ok := rk.rows[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	merged := NewTable(left.name()+"+"+right.name(), header...)
	merged.Rows = make([][]string, 0, len(keys))
	for _, key := range keys {
		row := make([]string, 0, len(header))
		row = append(row, FormatDate(lk.dates[key]))
		row = append(row, lk.rows[key]...)
		row = append(row, rk.rows[key]...)
		merged.Rows = append(merged.Rows, row)
	}

	summary := Summary{Rows: len(keys)}
	if len(keys) > 0 {
		summary.First = lk.dates[keys[0]]
		summary.Last = lk.dates[keys[len(keys)-1]]
	}

	return merged, summary, nil
}
