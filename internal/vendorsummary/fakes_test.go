package vendorsummary

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type memStore struct {
	purchases []PurchaseLine
	sales     []SalesLine
	freight   []FreightLine

	purchaseErr error
	indexErr    error
	writeErr    error

	indexCalls int
	written    []SummaryRow
	table      string
	mode       WriteMode
	writes     int
}

func (m *memStore) PurchaseLines(ctx context.Context, fn func(PurchaseLine) error) error {
	if m.purchaseErr != nil {
		return m.purchaseErr
	}
	for _, line := range m.purchases {
		if err := fn(line); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) SalesLines(ctx context.Context, fn func(SalesLine) error) error {
	for _, line := range m.sales {
		if err := fn(line); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) FreightLines(ctx context.Context, fn func(FreightLine) error) error {
	for _, line := range m.freight {
		if err := fn(line); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) EnsureIndexes(ctx context.Context) error {
	m.indexCalls++
	return m.indexErr
}

func (m *memStore) WriteTable(ctx context.Context, rows []SummaryRow, table string, mode WriteMode) error {
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = rows
	m.table = table
	m.mode = mode
	return nil
}

func (m *memStore) Close() error { return nil }

func purchase(vendor int64, brand string, price, qty, dollars float64) PurchaseLine {
	return PurchaseLine{
		VendorNumber:  vendor,
		VendorName:    "Vendor",
		Brand:         brand,
		Description:   "Item " + brand,
		PurchasePrice: price,
		ActualPrice:   pgtype.Float8{Float64: price * 1.5, Valid: true},
		Volume:        pgtype.Text{String: "750", Valid: true},
		Quantity:      qty,
		Dollars:       dollars,
	}
}
