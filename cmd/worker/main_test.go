package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vendor-summary/internal/app"
	jobmetrics "github.com/odyssey-erp/vendor-summary/internal/jobs"
	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary/sqlitestore"
	"github.com/odyssey-erp/vendor-summary/jobs"
)

func seedInventory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.db")
	store, err := sqlitestore.Open(path, nil)
	require.NoError(t, err)
	defer store.Close()
	for _, stmt := range []string{
		`CREATE TABLE purchases (VendorNumber INTEGER, VendorName TEXT, Brand TEXT, Description TEXT, PurchasePrice REAL, Quantity INTEGER, Dollars REAL)`,
		`CREATE TABLE purchase_prices (Brand TEXT, Description TEXT, Price REAL, Volume TEXT)`,
		`CREATE TABLE sales (VendorNo INTEGER, Brand TEXT, SalesQuantity INTEGER, SalesDollars REAL, SalesPrice REAL, ExciseTax REAL)`,
		`CREATE TABLE vendor_invoice (VendorNumber INTEGER, Freight REAL)`,
		`INSERT INTO purchases VALUES (1, 'ACME', 'A', 'Gin', 10, 5, 50)`,
		`INSERT INTO purchase_prices VALUES ('A', 'Gin', 15, '750')`,
		`INSERT INTO sales VALUES (1, 'A', 3, 45, 15, 1)`,
		`INSERT INTO vendor_invoice VALUES (1, 5)`,
	} {
		require.NoError(t, store.DB().Exec(stmt).Error, stmt)
	}
	return path
}

func TestQueuedRebuildRunsAgainstStore(t *testing.T) {
	path := seedInventory(t)
	textfile := filepath.Join(t.TempDir(), "vendor_summary.prom")
	runner := &scopedRunner{
		dsn:      "sqlite://" + path,
		logger:   slog.Default(),
		metrics:  jobmetrics.NewMetrics(false),
		textfile: textfile,
	}
	job := jobs.NewVendorSummaryJob(runner, nil)
	task, err := jobs.NewVendorSummaryTask("summary_from_queue", "append")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))

	store, err := sqlitestore.Open(path, nil)
	require.NoError(t, err)
	defer store.Close()
	var count int64
	require.NoError(t, store.DB().Table("summary_from_queue").Count(&count).Error)
	require.Equal(t, int64(1), count)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	require.Contains(t, string(data), `vendor_summary_rows{job="vendor_summary"} 1`)
}

func TestScopedRunnerReportsOpenFailure(t *testing.T) {
	runner := &scopedRunner{dsn: "mysql://localhost/inventory", logger: slog.Default()}
	task, err := jobs.NewVendorSummaryTask("", "")
	require.NoError(t, err)
	require.Error(t, jobs.NewVendorSummaryJob(runner, nil).Handle(context.Background(), task))
}

func TestNewWorkerSchedule(t *testing.T) {
	cfg := &app.Config{
		DatabaseURL:     "sqlite://inventory.db",
		SummaryTable:    "vendor_sales_summary",
		WriteMode:       "replace",
		RedisAddr:       "127.0.0.1:0",
		RebuildSchedule: "0 3 * * *",
	}
	w, err := newWorker(cfg, slog.Default())
	require.NoError(t, err)
	require.NotNil(t, w)

	cfg.RebuildSchedule = "nightly"
	_, err = newWorker(cfg, slog.Default())
	require.Error(t, err)
}
