package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary"
)

func sampleRows() []vendorsummary.SummaryRow {
	return []vendorsummary.SummaryRow{
		{
			VendorNumber:          1,
			VendorName:            "ACME, Inc",
			Brand:                 "A",
			Description:           "Gin",
			TotalPurchaseQuantity: 5,
			TotalPurchaseDollars:  50,
			TotalSalesQuantity:    3,
			TotalSalesDollars:     45,
			GrossProfit:           -5,
			ProfitMargin:          -5.0 / 45 * 100,
			StockTurnover:         0.6,
			SalesToPurchaseRatio:  0.9,
		},
		{
			VendorNumber:         2,
			Brand:                "B",
			TotalPurchaseDollars: 4,
			GrossProfit:          -4,
			ProfitMargin:         math.Inf(-1),
			StockTurnover:        math.NaN(),
		},
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteSummaryCSV(buf, sampleRows()))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, vendorsummary.Columns, records[0])
	require.Equal(t, "ACME, Inc", records[1][1])
	require.Equal(t, "-5", records[1][14])
	require.Equal(t, "0.6", records[1][16])
	require.Equal(t, "-Inf", records[2][15])
	require.Equal(t, "NaN", records[2][16])
}

func TestWriteSummaryXLSX(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteSummaryXLSX(buf, sampleRows()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "vendor_number", rows[0][0])
	require.Equal(t, "ACME, Inc", rows[1][1])
	require.Equal(t, "-Inf", rows[2][15])
	require.Equal(t, "NaN", rows[2][16])
}
