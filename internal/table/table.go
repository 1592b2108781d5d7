package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Table is an in-memory tabular handle: the ordered header row plus one
// string map per data row, keyed by the trimmed header names.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ParseCSV reads a full CSV byte buffer into a Table. Header cells are
// trimmed of surrounding whitespace; cell values are kept as-is.
func ParseCSV(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file has no header row")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			row[h] = rec[i]
		}
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// Resolve maps a required column name to the actual header, comparing
// lower-cased and whitespace-trimmed.
func (t *Table) Resolve(name string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, h := range t.Headers {
		if strings.ToLower(h) == want {
			return h, true
		}
	}
	return "", false
}

func (t *Table) Len() int {
	return len(t.Rows)
}
