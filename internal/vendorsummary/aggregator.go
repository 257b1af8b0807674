package vendorsummary

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgtype"
)

type purchaseGroup struct {
	row      AggregateRow
	quantity float64
	dollars  float64
}

type salesGroup struct {
	quantity  float64
	dollars   float64
	price     float64
	exciseTax float64
}

// Aggregate builds one row per vendor/brand found in purchases with a
// positive price, left-joined with sales totals and vendor freight, ordered
// by total purchase dollars descending. Ties keep first-seen order.
func Aggregate(ctx context.Context, src Source) ([]AggregateRow, error) {
	if src == nil {
		return nil, fmt.Errorf("vendorsummary: aggregate: source not configured")
	}

	freight := make(map[int64]float64)
	if err := src.FreightLines(ctx, func(line FreightLine) error {
		freight[line.VendorNumber] += line.Freight
		return nil
	}); err != nil {
		return nil, fmt.Errorf("vendorsummary: freight summary: %w", err)
	}

	order := make([]Key, 0)
	purchases := make(map[Key]*purchaseGroup)
	if err := src.PurchaseLines(ctx, func(line PurchaseLine) error {
		if line.PurchasePrice <= 0 {
			return nil
		}
		key := Key{VendorNumber: line.VendorNumber, Brand: line.Brand}
		group, ok := purchases[key]
		if !ok {
			group = &purchaseGroup{row: AggregateRow{
				VendorNumber:  line.VendorNumber,
				VendorName:    pgtype.Text{String: line.VendorName, Valid: true},
				Brand:         line.Brand,
				Description:   pgtype.Text{String: line.Description, Valid: true},
				PurchasePrice: pgtype.Float8{Float64: line.PurchasePrice, Valid: true},
				ActualPrice:   line.ActualPrice,
				Volume:        line.Volume,
			}}
			purchases[key] = group
			order = append(order, key)
		}
		group.quantity += line.Quantity
		group.dollars += line.Dollars
		return nil
	}); err != nil {
		return nil, fmt.Errorf("vendorsummary: purchase summary: %w", err)
	}

	sales := make(map[Key]*salesGroup)
	if err := src.SalesLines(ctx, func(line SalesLine) error {
		key := Key{VendorNumber: line.VendorNo, Brand: line.Brand}
		group, ok := sales[key]
		if !ok {
			group = &salesGroup{}
			sales[key] = group
		}
		group.quantity += line.Quantity
		group.dollars += line.Dollars
		group.price += line.Price
		group.exciseTax += line.ExciseTax
		return nil
	}); err != nil {
		return nil, fmt.Errorf("vendorsummary: sales summary: %w", err)
	}

	rows := make([]AggregateRow, 0, len(order))
	for _, key := range order {
		group := purchases[key]
		row := group.row
		row.TotalPurchaseQuantity = float8(group.quantity)
		row.TotalPurchaseDollars = float8(group.dollars)
		if s, ok := sales[key]; ok {
			row.TotalSalesQuantity = float8(s.quantity)
			row.TotalSalesDollars = float8(s.dollars)
			row.TotalSalesPrice = float8(s.price)
			row.TotalExciseTax = float8(s.exciseTax)
		}
		if f, ok := freight[key.VendorNumber]; ok {
			row.FreightCost = float8(f)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalPurchaseDollars.Float64 > rows[j].TotalPurchaseDollars.Float64
	})
	return rows, nil
}

func float8(v float64) pgtype.Float8 {
	return pgtype.Float8{Float64: v, Valid: true}
}
