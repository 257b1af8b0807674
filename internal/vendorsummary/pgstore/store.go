package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/vendor-summary/internal/platform/db"
	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary"
)

const purchaseLinesQuery = `SELECT p."VendorNumber"::bigint,
	COALESCE(p."VendorName"::text, ''),
	p."Brand"::text,
	COALESCE(p."Description"::text, ''),
	p."PurchasePrice"::double precision,
	pp."Price"::double precision,
	pp."Volume"::text,
	COALESCE(p."Quantity", 0)::double precision,
	COALESCE(p."Dollars", 0)::double precision
FROM purchases AS p
LEFT JOIN LATERAL (
	SELECT "Price", "Volume" FROM purchase_prices WHERE "Brand" = p."Brand" ORDER BY ctid LIMIT 1
) AS pp ON true
WHERE p."PurchasePrice" > 0 AND p."VendorNumber" IS NOT NULL AND p."Brand" IS NOT NULL
ORDER BY p.ctid`

const salesLinesQuery = `SELECT "VendorNo"::bigint,
	"Brand"::text,
	COALESCE(SUM("SalesQuantity"), 0)::double precision,
	COALESCE(SUM("SalesDollars"), 0)::double precision,
	COALESCE(SUM("SalesPrice"), 0)::double precision,
	COALESCE(SUM("ExciseTax"), 0)::double precision
FROM sales
WHERE "VendorNo" IS NOT NULL AND "Brand" IS NOT NULL
GROUP BY "VendorNo", "Brand"`

const freightLinesQuery = `SELECT "VendorNumber"::bigint,
	COALESCE(SUM("Freight"), 0)::double precision
FROM vendor_invoice
WHERE "VendorNumber" IS NOT NULL
GROUP BY "VendorNumber"`

var columnTypes = map[string]string{
	"vendor_number": "BIGINT NOT NULL",
	"vendor_name":   "TEXT NOT NULL",
	"brand":         "TEXT NOT NULL",
	"description":   "TEXT NOT NULL",
}

// Store reads the source tables and writes the summary on PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New wraps an existing pool. The caller keeps ownership unless Close is called.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Open connects to dsn and returns a Store owning the pool.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	pool, err := db.NewPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(pool, logger), nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// EnsureIndexes creates the join indexes when missing.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, idx := range vendorsummary.Indexes {
		cols := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			cols[i] = pgx.Identifier{c}.Sanitize()
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			pgx.Identifier{idx.Name}.Sanitize(),
			pgx.Identifier{idx.Table}.Sanitize(),
			strings.Join(cols, ", "),
		)
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return s.wrap("create index "+idx.Name, err)
		}
	}
	return nil
}

// PurchaseLines streams keyed purchases with a positive price.
func (s *Store) PurchaseLines(ctx context.Context, fn func(vendorsummary.PurchaseLine) error) error {
	rows, err := s.pool.Query(ctx, purchaseLinesQuery)
	if err != nil {
		return s.wrap("query purchases", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line vendorsummary.PurchaseLine
		if err := rows.Scan(
			&line.VendorNumber,
			&line.VendorName,
			&line.Brand,
			&line.Description,
			&line.PurchasePrice,
			&line.ActualPrice,
			&line.Volume,
			&line.Quantity,
			&line.Dollars,
		); err != nil {
			return s.wrap("scan purchases", err)
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return s.wrap("read purchases", rows.Err())
}

// SalesLines streams sales grouped by vendor and brand.
func (s *Store) SalesLines(ctx context.Context, fn func(vendorsummary.SalesLine) error) error {
	rows, err := s.pool.Query(ctx, salesLinesQuery)
	if err != nil {
		return s.wrap("query sales", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line vendorsummary.SalesLine
		if err := rows.Scan(&line.VendorNo, &line.Brand, &line.Quantity, &line.Dollars, &line.Price, &line.ExciseTax); err != nil {
			return s.wrap("scan sales", err)
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return s.wrap("read sales", rows.Err())
}

// FreightLines streams freight totals per vendor.
func (s *Store) FreightLines(ctx context.Context, fn func(vendorsummary.FreightLine) error) error {
	rows, err := s.pool.Query(ctx, freightLinesQuery)
	if err != nil {
		return s.wrap("query vendor_invoice", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line vendorsummary.FreightLine
		if err := rows.Scan(&line.VendorNumber, &line.Freight); err != nil {
			return s.wrap("scan vendor_invoice", err)
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return s.wrap("read vendor_invoice", rows.Err())
}

// WriteTable persists rows with COPY inside one transaction.
func (s *Store) WriteTable(ctx context.Context, rows []vendorsummary.SummaryRow, table string, mode vendorsummary.WriteMode) error {
	mode, err := vendorsummary.ParseWriteMode(string(mode))
	if err != nil {
		return err
	}
	ident := pgx.Identifier{table}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if mode == vendorsummary.WriteModeReplace {
			if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
				return s.wrap("drop "+table, err)
			}
		}
		if _, err := tx.Exec(ctx, createTableSQL(ident)); err != nil {
			return s.wrap("create "+table, err)
		}
		copied, err := tx.CopyFrom(ctx, ident, vendorsummary.Columns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return rows[i].Values(), nil
		}))
		if err != nil {
			return s.wrap("copy "+table, err)
		}
		if int(copied) != len(rows) {
			return fmt.Errorf("pgstore: copy %s: wrote %d of %d rows", table, copied, len(rows))
		}
		return nil
	})
}

func createTableSQL(ident pgx.Identifier) string {
	defs := make([]string, len(vendorsummary.Columns))
	for i, col := range vendorsummary.Columns {
		typ, ok := columnTypes[col]
		if !ok {
			typ = "DOUBLE PRECISION NOT NULL"
		}
		defs[i] = pgx.Identifier{col}.Sanitize() + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident.Sanitize(), strings.Join(defs, ", "))
}

func (s *Store) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		s.logger.Error("postgres error",
			slog.String("op", op),
			slog.String("sqlstate", pgErr.Code),
			slog.String("detail", pgErr.Detail),
		)
	}
	return fmt.Errorf("pgstore: %s: %w", op, err)
}
