package pipeline

import (
	"strings"

	"github.com/ticket-validator/backend/internal/table"
)

// Required column sets for the two uploads. Comparison against actual
// headers is case-insensitive and whitespace-trimmed.
var (
	DailyTicketColumns = []string{"short_description", "ALARMS"}
	AlarmTicketColumns = []string{"Controlling Object Name", "Alarm Time", "Alarm Text"}
)

// ValidateCSV checks the upload's extension, parses it, and confirms every
// required column is present. The returned table has trimmed headers.
func ValidateCSV(filename string, data []byte, required []string) (*table.Table, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, &FormatError{Filename: filename}
	}

	tbl, err := table.ParseCSV(data)
	if err != nil {
		return nil, &FormatError{Filename: filename, Err: err}
	}

	var missing []string
	for _, col := range required {
		if _, ok := tbl.Resolve(col); !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Filename: filename, Missing: missing}
	}

	return tbl, nil
}
