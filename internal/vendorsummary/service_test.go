package vendorsummary

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/vendor-summary/internal/jobs"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestServiceRunEndToEnd(t *testing.T) {
	store := &memStore{
		purchases: []PurchaseLine{
			purchase(1, "A", 10, 5, 50),
			purchase(2, "B", 8, 2, 16),
		},
		sales: []SalesLine{{VendorNo: 1, Brand: "A", Quantity: 3, Dollars: 45}},
	}
	var logs bytes.Buffer
	metrics := jobmetrics.NewMetrics(false)
	svc := NewService(store, newTestLogger(&logs), WithMetrics(metrics))

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, store.indexCalls)
	require.Equal(t, DefaultTable, store.table)
	require.Equal(t, WriteModeReplace, store.mode)
	require.Len(t, store.written, 2)
	require.NotEmpty(t, result.RunID)

	first := store.written[0]
	require.Equal(t, 50.0, first.TotalPurchaseDollars)
	require.Equal(t, 45.0, first.TotalSalesDollars)
	require.Equal(t, -5.0, first.GrossProfit)
	require.InDelta(t, 0.6, first.StockTurnover, 1e-12)

	second := store.written[1]
	require.True(t, math.IsInf(second.ProfitMargin, -1))
	require.Equal(t, 1, result.Stats.DegenerateMargins)

	require.Contains(t, logs.String(), "creating vendor summary table")
	require.Contains(t, logs.String(), `"profit_margin":"-Inf"`)
	require.Contains(t, logs.String(), "completed")

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsCounter().WithLabelValues(JobName, "success")))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsGauge().WithLabelValues(JobName)))
}

func TestServiceRunOptions(t *testing.T) {
	store := &memStore{purchases: []PurchaseLine{purchase(1, "A", 1, 1, 1)}}
	svc := NewService(store, newTestLogger(&bytes.Buffer{}))

	_, err := svc.Run(context.Background(), RunOptions{Table: " summary_copy ", Mode: WriteModeAppend, SkipIndexes: true})
	require.NoError(t, err)
	require.Zero(t, store.indexCalls)
	require.Equal(t, "summary_copy", store.table)
	require.Equal(t, WriteModeAppend, store.mode)

	_, err = svc.Run(context.Background(), RunOptions{Mode: "upsert"})
	require.ErrorIs(t, err, ErrInvalidWriteMode)
}

func TestServiceRunAbortsOnErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("index", func(t *testing.T) {
		store := &memStore{indexErr: boom}
		_, err := NewService(store, nil).Run(context.Background(), RunOptions{})
		require.ErrorIs(t, err, boom)
		require.Zero(t, store.writes)
	})

	t.Run("query", func(t *testing.T) {
		store := &memStore{purchaseErr: boom}
		metrics := jobmetrics.NewMetrics(false)
		_, err := NewService(store, nil, WithMetrics(metrics)).Run(context.Background(), RunOptions{})
		require.ErrorIs(t, err, boom)
		require.Zero(t, store.writes)
		require.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsCounter().WithLabelValues(JobName, "failure")))
	})

	t.Run("write", func(t *testing.T) {
		store := &memStore{purchases: []PurchaseLine{purchase(1, "A", 1, 1, 1)}, writeErr: boom}
		_, err := NewService(store, nil).Run(context.Background(), RunOptions{})
		require.ErrorIs(t, err, boom)
		require.Equal(t, 1, store.writes)
	})
}

func TestServiceRunDuration(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	store := &memStore{}
	result, err := NewService(store, nil, WithClock(clock)).Run(context.Background(), RunOptions{PreviewRows: -1})
	require.NoError(t, err)
	require.Equal(t, time.Second, result.Duration)
	require.Empty(t, result.Rows)
	require.Equal(t, 1, store.writes, "an empty summary is still written")
}
