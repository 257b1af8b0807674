package vendorsummary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// DefaultTable is the destination table of the summary.
const DefaultTable = "vendor_sales_summary"

// WriteMode controls how WriteTable treats an existing destination table.
type WriteMode string

const (
	// WriteModeReplace drops and recreates the destination table.
	WriteModeReplace WriteMode = "replace"
	// WriteModeAppend creates the table when missing and appends rows.
	WriteModeAppend WriteMode = "append"
)

// ErrInvalidWriteMode is returned for unknown write modes.
var ErrInvalidWriteMode = errors.New("vendorsummary: invalid write mode")

// ParseWriteMode normalises a user supplied mode; empty means replace.
func ParseWriteMode(raw string) (WriteMode, error) {
	switch WriteMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", WriteModeReplace:
		return WriteModeReplace, nil
	case WriteModeAppend:
		return WriteModeAppend, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidWriteMode, raw)
	}
}

// PurchaseLine is a single purchases row joined with its price list entry.
type PurchaseLine struct {
	VendorNumber  int64
	VendorName    string
	Brand         string
	Description   string
	PurchasePrice float64
	ActualPrice   pgtype.Float8
	Volume        pgtype.Text
	Quantity      float64
	Dollars       float64
}

// SalesLine is a sales row, or a pre-grouped sales total for one vendor/brand.
type SalesLine struct {
	VendorNo  int64
	Brand     string
	Quantity  float64
	Dollars   float64
	Price     float64
	ExciseTax float64
}

// FreightLine is a vendor invoice freight amount.
type FreightLine struct {
	VendorNumber int64
	Freight      float64
}

// Key identifies a vendor/brand pair.
type Key struct {
	VendorNumber int64
	Brand        string
}

// AggregateRow is one vendor/brand row after the left joins. Sales and
// freight columns stay null when no matching rows exist.
type AggregateRow struct {
	VendorNumber          int64
	VendorName            pgtype.Text
	Brand                 string
	Description           pgtype.Text
	PurchasePrice         pgtype.Float8
	ActualPrice           pgtype.Float8
	Volume                pgtype.Text
	TotalPurchaseQuantity pgtype.Float8
	TotalPurchaseDollars  pgtype.Float8
	TotalSalesQuantity    pgtype.Float8
	TotalSalesDollars     pgtype.Float8
	TotalSalesPrice       pgtype.Float8
	TotalExciseTax        pgtype.Float8
	FreightCost           pgtype.Float8
}

// Key returns the vendor/brand key of the row.
func (r AggregateRow) Key() Key {
	return Key{VendorNumber: r.VendorNumber, Brand: r.Brand}
}

// SummaryRow is the enriched output row. Derived ratios may be NaN or ±Inf.
type SummaryRow struct {
	VendorNumber          int64
	VendorName            string
	Brand                 string
	Description           string
	PurchasePrice         float64
	ActualPrice           float64
	Volume                float64
	TotalPurchaseQuantity float64
	TotalPurchaseDollars  float64
	TotalSalesQuantity    float64
	TotalSalesDollars     float64
	TotalSalesPrice       float64
	TotalExciseTax        float64
	FreightCost           float64
	GrossProfit           float64
	ProfitMargin          float64
	StockTurnover         float64
	SalesToPurchaseRatio  float64
}

// Columns lists the output column names in table order.
var Columns = []string{
	"vendor_number",
	"vendor_name",
	"brand",
	"description",
	"purchase_price",
	"actual_price",
	"volume",
	"total_purchase_quantity",
	"total_purchase_dollars",
	"total_sales_quantity",
	"total_sales_dollars",
	"total_sales_price",
	"total_excise_tax",
	"freight_cost",
	"gross_profit",
	"profit_margin",
	"stock_turnover",
	"sales_to_purchase_ratio",
}

// Values returns the row values aligned with Columns.
func (r SummaryRow) Values() []any {
	return []any{
		r.VendorNumber,
		r.VendorName,
		r.Brand,
		r.Description,
		r.PurchasePrice,
		r.ActualPrice,
		r.Volume,
		r.TotalPurchaseQuantity,
		r.TotalPurchaseDollars,
		r.TotalSalesQuantity,
		r.TotalSalesDollars,
		r.TotalSalesPrice,
		r.TotalExciseTax,
		r.FreightCost,
		r.GrossProfit,
		r.ProfitMargin,
		r.StockTurnover,
		r.SalesToPurchaseRatio,
	}
}
