package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ticket-validator/backend/internal/pipeline"
)

// SheetName is the single sheet the xlsx export writes.
const SheetName = "Validated Tickets"

// ToXLSX renders the classified table as an xlsx workbook with one named
// sheet. Absent start times become empty cells.
func ToXLSX(tickets []pipeline.ClassifiedTicket) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(pipeline.OutputColumns))
	for i, col := range pipeline.OutputColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, t := range tickets {
		values := rowValues(t)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ToCSV renders the classified table as a delimited file with the same
// column set as the xlsx export.
func ToCSV(tickets []pipeline.ClassifiedTicket) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(pipeline.OutputColumns); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	for _, t := range tickets {
		if err := w.Write(rowValues(t)); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func rowValues(t pipeline.ClassifiedTicket) []string {
	return []string{
		t.Number, t.OpenedAt, t.ShortDescription, t.SysUpdatedOn,
		t.Alarms, t.Validation, t.StartTime, t.SiteCode,
	}
}
