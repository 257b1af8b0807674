package vendorsummary

import "context"

// Source streams the raw rows the summary is built from.
type Source interface {
	// PurchaseLines yields purchases with a positive purchase price, in storage order.
	PurchaseLines(ctx context.Context, fn func(PurchaseLine) error) error
	SalesLines(ctx context.Context, fn func(SalesLine) error) error
	FreightLines(ctx context.Context, fn func(FreightLine) error) error
}

// Indexer creates the lookup indexes used by the joins. Must be idempotent.
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// TableWriter persists a row-set under the given table name.
type TableWriter interface {
	WriteTable(ctx context.Context, rows []SummaryRow, table string, mode WriteMode) error
}

// Store bundles everything a run needs from one relational database.
type Store interface {
	Source
	Indexer
	TableWriter
	Close() error
}

// IndexSpec describes one of the supporting indexes.
type IndexSpec struct {
	Name    string
	Table   string
	Columns []string
}

// Indexes are the non-unique indexes backing the vendor/brand joins.
var Indexes = []IndexSpec{
	{Name: "idx_purchase_vendor_brand", Table: "purchases", Columns: []string{"VendorNumber", "Brand"}},
	{Name: "idx_sales_vendor_brand", Table: "sales", Columns: []string{"VendorNo", "Brand"}},
	{Name: "idx_invoice_vendor", Table: "vendor_invoice", Columns: []string{"VendorNumber"}},
}
