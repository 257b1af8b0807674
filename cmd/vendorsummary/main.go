package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/odyssey-erp/vendor-summary/cmd/vendorsummary/cli"
	"github.com/odyssey-erp/vendor-summary/internal/app"
	jobmetrics "github.com/odyssey-erp/vendor-summary/internal/jobs"
	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary"
	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary/export"
	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	enqueue := flag.Bool("enqueue", false, "submit the rebuild to the worker queue instead of running it")
	envFile := flag.String("env-file", "", "optional .env file loaded before the environment")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := app.LoadConfig(envFiles...)
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}
	if cfg.TestMode {
		slog.Default().Info("test mode detected, skipping vendor summary run")
		return 0
	}

	out, closeLog, err := app.OpenLogOutput(cfg)
	if err != nil {
		slog.Default().Error("open log output", slog.Any("error", err))
		return 1
	}
	defer func() { _ = closeLog() }()
	logger := app.NewLogger(cfg, out)

	if *enqueue {
		return trigger(ctx, cfg, logger)
	}

	store, err := storage.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("store close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(false)
	service := vendorsummary.NewService(store, logger, vendorsummary.WithMetrics(metrics))
	result, runErr := service.Run(ctx, vendorsummary.RunOptions{
		Table:       cfg.SummaryTable,
		Mode:        vendorsummary.WriteMode(cfg.WriteMode),
		PreviewRows: cfg.PreviewRows,
		SkipIndexes: cfg.SkipIndexes,
	})
	if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Warn("write metrics textfile", slog.Any("error", err))
	}
	if runErr != nil {
		logger.Error("vendor summary", slog.Any("error", runErr))
		return 1
	}

	if err := writeExports(cfg, result.Rows); err != nil {
		logger.Error("export summary", slog.Any("error", err))
		return 1
	}
	return 0
}

func trigger(ctx context.Context, cfg *app.Config, logger *slog.Logger) int {
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	info, err := jobsCLI.Trigger(ctx, cfg.SummaryTable, cfg.WriteMode)
	if err != nil {
		logger.Error("enqueue vendor summary", slog.Any("error", err))
		return 1
	}
	logger.Info("enqueued vendor summary", slog.String("task_id", info.ID), slog.String("queue", info.Queue))
	return 0
}

func writeExports(cfg *app.Config, rows []vendorsummary.SummaryRow) error {
	if cfg.ExportCSV != "" {
		if err := writeFile(cfg.ExportCSV, func(f *os.File) error { return export.WriteSummaryCSV(f, rows) }); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
	}
	if cfg.ExportXLSX != "" {
		if err := writeFile(cfg.ExportXLSX, func(f *os.File) error { return export.WriteSummaryXLSX(f, rows) }); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
