package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary"
)

// SheetName is the worksheet holding the summary.
const SheetName = "vendor_sales_summary"

// WriteSummaryXLSX writes the summary rows as a single-sheet workbook.
// Spreadsheet cells cannot hold NaN or Inf, so those are written as text.
func WriteSummaryXLSX(w io.Writer, rows []vendorsummary.SummaryRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: xlsx sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("export: xlsx stream: %w", err)
	}

	header := make([]any, len(vendorsummary.Columns))
	for i, col := range vendorsummary.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export: xlsx header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells(row)); err != nil {
			return fmt.Errorf("export: xlsx row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: xlsx flush: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: xlsx write: %w", err)
	}
	return nil
}

func cells(row vendorsummary.SummaryRow) []any {
	values := row.Values()
	for i, v := range values {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			values[i] = formatFloat(f)
		}
	}
	return values
}
