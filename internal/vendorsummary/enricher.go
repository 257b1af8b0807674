package vendorsummary

import (
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// EnrichStats counts data quality observations made while enriching.
type EnrichStats struct {
	Rows              int
	BadVolume         int
	DegenerateMargins int
}

// Enrich zero-fills nulls, trims text columns, coerces volume to float and
// computes the derived financial metrics. Divisions by zero yield NaN or ±Inf.
func Enrich(rows []AggregateRow) ([]SummaryRow, EnrichStats) {
	out := make([]SummaryRow, 0, len(rows))
	stats := EnrichStats{Rows: len(rows)}
	for _, row := range rows {
		volume, ok := parseVolume(row.Volume)
		if !ok {
			stats.BadVolume++
		}
		summary := SummaryRow{
			VendorNumber:          row.VendorNumber,
			VendorName:            strings.TrimSpace(text(row.VendorName)),
			Brand:                 row.Brand,
			Description:           strings.TrimSpace(text(row.Description)),
			PurchasePrice:         zero(row.PurchasePrice),
			ActualPrice:           zero(row.ActualPrice),
			Volume:                volume,
			TotalPurchaseQuantity: zero(row.TotalPurchaseQuantity),
			TotalPurchaseDollars:  zero(row.TotalPurchaseDollars),
			TotalSalesQuantity:    zero(row.TotalSalesQuantity),
			TotalSalesDollars:     zero(row.TotalSalesDollars),
			TotalSalesPrice:       zero(row.TotalSalesPrice),
			TotalExciseTax:        zero(row.TotalExciseTax),
			FreightCost:           zero(row.FreightCost),
		}
		summary.GrossProfit = summary.TotalSalesDollars - summary.TotalPurchaseDollars
		summary.ProfitMargin = summary.GrossProfit / summary.TotalSalesDollars * 100
		summary.StockTurnover = summary.TotalSalesQuantity / summary.TotalPurchaseQuantity
		summary.SalesToPurchaseRatio = summary.TotalSalesDollars / summary.TotalPurchaseDollars
		if math.IsNaN(summary.ProfitMargin) || math.IsInf(summary.ProfitMargin, 0) {
			stats.DegenerateMargins++
		}
		out = append(out, summary)
	}
	return out, stats
}

// parseVolume reports false when a non-null volume could not be parsed.
func parseVolume(v pgtype.Text) (float64, bool) {
	if !v.Valid {
		return 0, true
	}
	raw := strings.TrimSpace(v.String)
	if raw == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func zero(v pgtype.Float8) float64 {
	if !v.Valid || math.IsNaN(v.Float64) {
		return 0
	}
	return v.Float64
}

func text(v pgtype.Text) string {
	if !v.Valid {
		return ""
	}
	return v.String
}
