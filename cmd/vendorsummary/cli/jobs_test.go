package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vendor-summary/jobs"
)

type stubEnqueuer struct {
	tasks  []*asynq.Task
	closed bool
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: jobs.QueueDefault, Type: task.Type()}, nil
}

func (s *stubEnqueuer) Close() error {
	s.closed = true
	return nil
}

func TestTriggerEnqueuesVendorSummary(t *testing.T) {
	stub := &stubEnqueuer{}
	c := NewJobsCLIWithClient(stub)

	info, err := c.Trigger(context.Background(), "vendor_sales_summary", "replace")
	require.NoError(t, err)
	require.Equal(t, "task-1", info.ID)
	require.Len(t, stub.tasks, 1)
	require.Equal(t, jobs.TaskVendorSummaryBuild, stub.tasks[0].Type())

	var payload jobs.VendorSummaryPayload
	require.NoError(t, json.Unmarshal(stub.tasks[0].Payload(), &payload))
	require.Equal(t, "vendor_sales_summary", payload.Table)

	require.NoError(t, c.Close())
	require.True(t, stub.closed)
}

func TestTriggerWithoutClient(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), "", "")
	require.Error(t, err)
	require.NoError(t, c.Close())
}
