package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/odyssey-erp/vendor-summary/internal/platform/db"
	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary"
)

const purchaseLinesQuery = `SELECT p.VendorNumber,
	COALESCE(p.VendorName, ''),
	CAST(p.Brand AS TEXT),
	COALESCE(p.Description, ''),
	CAST(p.PurchasePrice AS REAL),
	CAST(pp.Price AS REAL),
	CAST(pp.Volume AS TEXT),
	CAST(COALESCE(p.Quantity, 0) AS REAL),
	CAST(COALESCE(p.Dollars, 0) AS REAL)
FROM purchases AS p
LEFT JOIN purchase_prices AS pp
	ON pp.rowid = (SELECT rowid FROM purchase_prices WHERE Brand = p.Brand LIMIT 1)
WHERE p.PurchasePrice > 0 AND p.VendorNumber IS NOT NULL AND p.Brand IS NOT NULL
ORDER BY p.rowid`

const salesLinesQuery = `SELECT VendorNo,
	CAST(Brand AS TEXT),
	CAST(COALESCE(SUM(SalesQuantity), 0) AS REAL),
	CAST(COALESCE(SUM(SalesDollars), 0) AS REAL),
	CAST(COALESCE(SUM(SalesPrice), 0) AS REAL),
	CAST(COALESCE(SUM(ExciseTax), 0) AS REAL)
FROM sales
WHERE VendorNo IS NOT NULL AND Brand IS NOT NULL
GROUP BY VendorNo, Brand`

const freightLinesQuery = `SELECT VendorNumber,
	CAST(COALESCE(SUM(Freight), 0) AS REAL)
FROM vendor_invoice
WHERE VendorNumber IS NOT NULL
GROUP BY VendorNumber`

const batchSize = 500

// summaryRecord is the gorm model of an output row.
type summaryRecord struct {
	VendorNumber          int64   `gorm:"column:vendor_number;not null"`
	VendorName            string  `gorm:"column:vendor_name;not null"`
	Brand                 string  `gorm:"column:brand;not null"`
	Description           string  `gorm:"column:description;not null"`
	PurchasePrice         float64 `gorm:"column:purchase_price"`
	ActualPrice           float64 `gorm:"column:actual_price"`
	Volume                float64 `gorm:"column:volume"`
	TotalPurchaseQuantity float64 `gorm:"column:total_purchase_quantity"`
	TotalPurchaseDollars  float64 `gorm:"column:total_purchase_dollars"`
	TotalSalesQuantity    float64 `gorm:"column:total_sales_quantity"`
	TotalSalesDollars     float64 `gorm:"column:total_sales_dollars"`
	TotalSalesPrice       float64 `gorm:"column:total_sales_price"`
	TotalExciseTax        float64 `gorm:"column:total_excise_tax"`
	FreightCost           float64 `gorm:"column:freight_cost"`
	GrossProfit           float64 `gorm:"column:gross_profit"`
	ProfitMargin          float64 `gorm:"column:profit_margin"`
	StockTurnover         float64 `gorm:"column:stock_turnover"`
	SalesToPurchaseRatio  float64 `gorm:"column:sales_to_purchase_ratio"`
}

func toRecord(row vendorsummary.SummaryRow) summaryRecord {
	return summaryRecord(row)
}

// Store reads the source tables and writes the summary on SQLite.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm handle.
func New(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

// Open opens the SQLite database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	conn, err := db.NewSQLite(path, logger)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// DB exposes the underlying handle, mainly for seeding in tests.
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureIndexes creates the join indexes when missing.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, idx := range vendorsummary.Indexes {
		cols := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			cols[i] = quote(c)
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", quote(idx.Name), quote(idx.Table), strings.Join(cols, ", "))
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("sqlitestore: create index %s: %w", idx.Name, err)
		}
	}
	return nil
}

// PurchaseLines streams keyed purchases with a positive price in storage order.
func (s *Store) PurchaseLines(ctx context.Context, fn func(vendorsummary.PurchaseLine) error) error {
	return s.stream(ctx, "purchases", purchaseLinesQuery, func(rows *sql.Rows) error {
		var line vendorsummary.PurchaseLine
		var price sql.NullFloat64
		var volume sql.NullString
		if err := rows.Scan(
			&line.VendorNumber,
			&line.VendorName,
			&line.Brand,
			&line.Description,
			&line.PurchasePrice,
			&price,
			&volume,
			&line.Quantity,
			&line.Dollars,
		); err != nil {
			return err
		}
		line.ActualPrice.Float64, line.ActualPrice.Valid = price.Float64, price.Valid
		line.Volume.String, line.Volume.Valid = volume.String, volume.Valid
		return fn(line)
	})
}

// SalesLines streams sales grouped by vendor and brand.
func (s *Store) SalesLines(ctx context.Context, fn func(vendorsummary.SalesLine) error) error {
	return s.stream(ctx, "sales", salesLinesQuery, func(rows *sql.Rows) error {
		var line vendorsummary.SalesLine
		if err := rows.Scan(&line.VendorNo, &line.Brand, &line.Quantity, &line.Dollars, &line.Price, &line.ExciseTax); err != nil {
			return err
		}
		return fn(line)
	})
}

// FreightLines streams freight totals per vendor.
func (s *Store) FreightLines(ctx context.Context, fn func(vendorsummary.FreightLine) error) error {
	return s.stream(ctx, "vendor_invoice", freightLinesQuery, func(rows *sql.Rows) error {
		var line vendorsummary.FreightLine
		if err := rows.Scan(&line.VendorNumber, &line.Freight); err != nil {
			return err
		}
		return fn(line)
	})
}

// WriteTable persists rows in batches inside one transaction.
func (s *Store) WriteTable(ctx context.Context, rows []vendorsummary.SummaryRow, table string, mode vendorsummary.WriteMode) error {
	mode, err := vendorsummary.ParseWriteMode(string(mode))
	if err != nil {
		return err
	}
	records := make([]summaryRecord, len(rows))
	for i, row := range rows {
		records[i] = toRecord(row)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		migrator := tx.Migrator()
		if mode == vendorsummary.WriteModeReplace && migrator.HasTable(table) {
			if err := migrator.DropTable(table); err != nil {
				return fmt.Errorf("sqlitestore: drop %s: %w", table, err)
			}
		}
		if err := tx.Table(table).AutoMigrate(&summaryRecord{}); err != nil {
			return fmt.Errorf("sqlitestore: create %s: %w", table, err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Table(table).CreateInBatches(records, batchSize).Error; err != nil {
			return fmt.Errorf("sqlitestore: insert %s: %w", table, err)
		}
		return nil
	})
}

func (s *Store) stream(ctx context.Context, source, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return fmt.Errorf("sqlitestore: query %s: %w", source, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("sqlitestore: read %s: %w", source, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlitestore: read %s: %w", source, err)
	}
	return nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
