package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary"
)

// WriteSummaryCSV serialises the summary rows with a header line.
// Undefined ratios are written as NaN, +Inf or -Inf.
func WriteSummaryCSV(w io.Writer, rows []vendorsummary.SummaryRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(vendorsummary.Columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(record(row)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func record(row vendorsummary.SummaryRow) []string {
	values := row.Values()
	out := make([]string, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case string:
			out[i] = val
		case int64:
			out[i] = strconv.FormatInt(val, 10)
		case float64:
			out[i] = formatFloat(val)
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
