package vendorsummary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	jobmetrics "github.com/odyssey-erp/vendor-summary/internal/jobs"
)

// JobName labels logs and metrics emitted by a run.
const JobName = "vendor_summary"

const defaultPreviewRows = 5

// RunOptions tune a single run.
type RunOptions struct {
	Table       string
	Mode        WriteMode
	PreviewRows int
	SkipIndexes bool
}

// Result describes a completed run.
type Result struct {
	RunID    string
	Table    string
	Rows     []SummaryRow
	Stats    EnrichStats
	Duration time.Duration
}

// Service builds and persists the vendor sales summary.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// Option customises the Service.
type Option func(*Service)

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *jobmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService wires the store and logger supplied by the caller.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, logger: logger, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the report once. Any store error aborts the run.
func (s *Service) Run(ctx context.Context, opts RunOptions) (result Result, err error) {
	if s == nil || s.store == nil {
		return Result{}, errors.New("vendorsummary: store not configured")
	}
	opts, err = normalise(opts)
	if err != nil {
		return Result{}, err
	}

	tracker := s.metrics.Track(JobName)
	defer func() {
		err = tracker.End(err)
	}()

	start := s.clock()
	runID := uuid.NewString()
	logger := s.logger.With(
		slog.String("job", JobName),
		slog.String("run_id", runID),
		slog.String("table", opts.Table),
	)

	if !opts.SkipIndexes {
		if err := s.store.EnsureIndexes(ctx); err != nil {
			logger.Error("ensure indexes", slog.Any("error", err))
			return Result{}, fmt.Errorf("vendorsummary: ensure indexes: %w", err)
		}
	}

	logger.Info("creating vendor summary table")
	aggregated, err := Aggregate(ctx, s.store)
	if err != nil {
		logger.Error("aggregate", slog.Any("error", err))
		return Result{}, err
	}
	logAggregatePreview(logger, aggregated, opts.PreviewRows)

	logger.Info("cleaning data")
	rows, stats := Enrich(aggregated)
	logSummaryPreview(logger, rows, opts.PreviewRows)
	if stats.BadVolume > 0 {
		logger.Warn("unparseable volume values replaced with zero", slog.Int("rows", stats.BadVolume))
	}
	if stats.DegenerateMargins > 0 {
		logger.Warn("rows without sales have undefined profit margin", slog.Int("rows", stats.DegenerateMargins))
	}

	logger.Info("ingesting data", slog.Int("rows", len(rows)), slog.String("mode", string(opts.Mode)))
	if err := s.store.WriteTable(ctx, rows, opts.Table, opts.Mode); err != nil {
		logger.Error("write table", slog.Any("error", err))
		return Result{}, fmt.Errorf("vendorsummary: write %s: %w", opts.Table, err)
	}
	s.metrics.ObserveRows(JobName, len(rows), stats.DegenerateMargins)

	duration := s.clock().Sub(start)
	logger.Info("completed", slog.Int("rows", len(rows)), slog.Duration("duration", duration))
	return Result{
		RunID:    runID,
		Table:    opts.Table,
		Rows:     rows,
		Stats:    stats,
		Duration: duration,
	}, nil
}

func normalise(opts RunOptions) (RunOptions, error) {
	opts.Table = strings.TrimSpace(opts.Table)
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	mode, err := ParseWriteMode(string(opts.Mode))
	if err != nil {
		return RunOptions{}, err
	}
	opts.Mode = mode
	if opts.PreviewRows < 0 {
		opts.PreviewRows = 0
	} else if opts.PreviewRows == 0 {
		opts.PreviewRows = defaultPreviewRows
	}
	return opts, nil
}

func logAggregatePreview(logger *slog.Logger, rows []AggregateRow, n int) {
	for i := 0; i < n && i < len(rows); i++ {
		row := rows[i]
		logger.Info("aggregate row",
			slog.Int("index", i),
			slog.Int64("vendor_number", row.VendorNumber),
			slog.String("vendor_name", row.VendorName.String),
			slog.String("brand", row.Brand),
			slog.Float64("total_purchase_dollars", row.TotalPurchaseDollars.Float64),
			slog.Bool("has_sales", row.TotalSalesDollars.Valid),
			slog.Bool("has_freight", row.FreightCost.Valid),
		)
	}
}

func logSummaryPreview(logger *slog.Logger, rows []SummaryRow, n int) {
	for i := 0; i < n && i < len(rows); i++ {
		row := rows[i]
		logger.Info("summary row",
			slog.Int("index", i),
			slog.Int64("vendor_number", row.VendorNumber),
			slog.String("brand", row.Brand),
			slog.Float64("total_purchase_dollars", row.TotalPurchaseDollars),
			slog.Float64("total_sales_dollars", row.TotalSalesDollars),
			slog.Float64("gross_profit", row.GrossProfit),
			floatAttr("profit_margin", row.ProfitMargin),
			floatAttr("stock_turnover", row.StockTurnover),
			floatAttr("sales_to_purchase_ratio", row.SalesToPurchaseRatio),
		)
	}
}

// floatAttr keeps NaN and Inf readable in the JSON handler, which cannot
// marshal them as numbers.
func floatAttr(key string, v float64) slog.Attr {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return slog.String(key, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return slog.Float64(key, v)
}
