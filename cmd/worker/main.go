package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/vendor-summary/internal/app"
	jobmetrics "github.com/odyssey-erp/vendor-summary/internal/jobs"
	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary"
	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary/storage"
	"github.com/odyssey-erp/vendor-summary/jobs"
)

func main() {
	os.Exit(run())
}

func run() int {
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
		slog.Default().Info("test mode detected, skipping worker startup")
		return 0
	}

	out, closeLog, err := app.OpenLogOutput(cfg)
	if err != nil {
		slog.Default().Error("open log output", slog.Any("error", err))
		return 1
	}
	defer func() { _ = closeLog() }()
	logger := app.NewLogger(cfg, out)

	worker, err := newWorker(cfg, logger)
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		return 1
	}
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		return 1
	}
	return 0
}

func newWorker(cfg *app.Config, logger *slog.Logger) (*jobs.Worker, error) {
	runner := &scopedRunner{
		dsn:      cfg.DatabaseURL,
		logger:   logger,
		metrics:  jobmetrics.NewMetrics(true),
		textfile: cfg.MetricsTextfile,
		skip:     cfg.SkipIndexes,
	}
	job := jobs.NewVendorSummaryJob(runner, logger)
	job.PreviewRows = cfg.PreviewRows

	var cron []jobs.CronRegistration
	if cfg.RebuildSchedule != "" {
		task, err := jobs.NewVendorSummaryTask(cfg.SummaryTable, cfg.WriteMode)
		if err != nil {
			return nil, err
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.RebuildSchedule, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	return jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskVendorSummaryBuild, Handler: job.Handle},
		},
		Cron: cron,
	})
}

// scopedRunner opens the store for a single task and closes it afterwards, so
// an idle worker holds no database connection.
type scopedRunner struct {
	dsn      string
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
	textfile string
	skip     bool
}

func (r *scopedRunner) Run(ctx context.Context, opts vendorsummary.RunOptions) (vendorsummary.Result, error) {
	store, err := storage.Open(ctx, r.dsn, r.logger)
	if err != nil {
		return vendorsummary.Result{}, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			r.logger.Warn("store close", slog.Any("error", err))
		}
	}()

	opts.SkipIndexes = opts.SkipIndexes || r.skip
	result, runErr := vendorsummary.NewService(store, r.logger, vendorsummary.WithMetrics(r.metrics)).Run(ctx, opts)
	if err := r.metrics.WriteTextfile(r.textfile); err != nil {
		r.logger.Warn("write metrics textfile", slog.Any("error", err))
	}
	return result, runErr
}
