// Package dataset reads and writes the pipeline's tables as delimited text or
// spreadsheets, and builds tables from collected rows.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jgoulah/flightscraper/internal/aggregate"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV loads a CSV file into a table named after the file
func ReadCSV(path string) (*aggregate.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV: %w", err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t, err := DecodeCSV(file, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// DecodeCSV parses CSV with a header row. Blank lines are skipped and rows may
// have fewer cells than the header.
func DecodeCSV(r io.Reader, name string) (*aggregate.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := aggregate.NewTable(name, header...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		if isBlank(record) {
			continue
		}
		t.Rows = append(t.Rows, record)
	}

	return t, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes a table to a CSV file, creating parent directories
func WriteCSV(path string, t *aggregate.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV: %w", err)
	}

	if err := EncodeCSV(file, t); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// EncodeCSV writes the header and rows of a table
func EncodeCSV(w io.Writer, t *aggregate.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteTable writes a table as a spreadsheet when the path ends in .xlsx and
// as CSV otherwise
func WriteTable(path string, t *aggregate.Table) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return WriteXLSX(path, t)
	}
	return WriteCSV(path, t)
}

// ReadTable reads a .xlsx workbook or a CSV file, by extension
func ReadTable(path string) (*aggregate.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path)
	}
	return ReadCSV(path)
}
