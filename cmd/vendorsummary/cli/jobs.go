package cli

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/vendor-summary/jobs"
)

// Enqueuer is the subset of asynq.Client used to submit tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// JobsCLI submits summary rebuilds to a worker queue instead of running inline.
type JobsCLI struct {
	client Enqueuer
}

// NewJobsCLI initialises the helper using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	return &JobsCLI{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// NewJobsCLIWithClient wires a custom enqueuer.
func NewJobsCLIWithClient(client Enqueuer) *JobsCLI {
	return &JobsCLI{client: client}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Trigger enqueues a vendor summary rebuild for table using mode.
func (c *JobsCLI) Trigger(ctx context.Context, table, mode string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, err := jobs.NewVendorSummaryTask(table, mode)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(0))
}
