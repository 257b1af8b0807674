package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue report tasks are enqueued on.
	QueueDefault = "default"
	// TaskVendorSummaryBuild rebuilds the vendor sales summary table.
	TaskVendorSummaryBuild = "reports:vendor_summary"
)

// VendorSummaryPayload selects the destination of a rebuild.
type VendorSummaryPayload struct {
	Table string `json:"table,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// NewVendorSummaryTask constructs an Asynq task for a summary rebuild.
func NewVendorSummaryTask(table, mode string) (*asynq.Task, error) {
	body, err := json.Marshal(VendorSummaryPayload{Table: table, Mode: mode})
	if err != nil {
		return nil, fmt.Errorf("jobs: encode vendor summary payload: %w", err)
	}
	return asynq.NewTask(TaskVendorSummaryBuild, body, asynq.Queue(QueueDefault)), nil
}
