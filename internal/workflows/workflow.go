package workflows

import (
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// IngestWorkflow runs one document through the ingestion activity. The
// activity rolls its own writes back on failure, so a single attempt is
// enough; resubmission is the caller's decision.
func IngestWorkflow(ctx workflow.Context, in IngestInput) (*IngestResult, error) {
	if strings.TrimSpace(in.Raw) == "" {
		return nil, temporal.NewNonRetryableApplicationError("empty document", "validation", nil)
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	var out IngestResult
	if err := workflow.ExecuteActivity(ctx, ActivityIngest, in).Get(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReasonWorkflow runs one full agent cycle. Proposal generation is
// read-only until the orchestrator applies approvals, so a short retry
// budget is safe.
func ReasonWorkflow(ctx workflow.Context) (*ReasonResult, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	})

	var out ReasonResult
	if err := workflow.ExecuteActivity(ctx, ActivityReason).Get(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
