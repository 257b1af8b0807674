package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary"
)

// Runner executes one summary build.
type Runner interface {
	Run(ctx context.Context, opts vendorsummary.RunOptions) (vendorsummary.Result, error)
}

// VendorSummaryJob adapts the summary service to an Asynq handler so a host
// worker can schedule rebuilds.
type VendorSummaryJob struct {
	Runner      Runner
	Logger      *slog.Logger
	PreviewRows int
}

// NewVendorSummaryJob initialises the handler.
func NewVendorSummaryJob(runner Runner, logger *slog.Logger) *VendorSummaryJob {
	return &VendorSummaryJob{Runner: runner, Logger: logger}
}

// Handle runs the build once. Malformed payloads are not retried.
func (j *VendorSummaryJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return errors.New("vendor summary: handler not configured")
	}
	var payload VendorSummaryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	mode, err := vendorsummary.ParseWriteMode(payload.Mode)
	if err != nil {
		j.logger().Warn("rejecting vendor summary task", slog.Any("error", err))
		return asynq.SkipRetry
	}
	result, err := j.Runner.Run(ctx, vendorsummary.RunOptions{
		Table:       payload.Table,
		Mode:        mode,
		PreviewRows: j.PreviewRows,
	})
	if err != nil {
		j.logger().Error("vendor summary failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("vendor summary built",
		slog.String("run_id", result.RunID),
		slog.String("table", result.Table),
		slog.Int("rows", len(result.Rows)),
	)
	return nil
}

func (j *VendorSummaryJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskVendorSummaryBuild))
	}
	return slog.Default().With(slog.String("job", TaskVendorSummaryBuild))
}
