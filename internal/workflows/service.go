package workflows

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	enums "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
)

// Service submits workflows and reports their state. A nil Temporal
// client is a valid configuration: every call answers not supported.
type Service struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	taskQueue string
}

func NewService(tc temporalsdkclient.Client, log *logger.Logger) *Service {
	return &Service{
		log:       log.With("service", "Workflows"),
		tc:        tc,
		taskQueue: LoadConfig().TaskQueue,
	}
}

func (s *Service) Enabled() bool { return s != nil && s.tc != nil }

func (s *Service) SubmitIngest(ctx context.Context, in IngestInput) (*Submission, error) {
	const op = "workflows.SubmitIngest"
	if !s.Enabled() {
		return nil, kgerr.New(kgerr.KindNotSupported, op, "workflow engine not configured")
	}
	if strings.TrimSpace(in.Raw) == "" {
		return nil, kgerr.New(kgerr.KindValidation, op, "document content must not be empty")
	}

	opts := temporalsdkclient.StartWorkflowOptions{
		ID:        "ingest-" + uuid.NewString(),
		TaskQueue: s.taskQueue,
	}
	run, err := s.tc.ExecuteWorkflow(ctx, opts, WorkflowIngest, in)
	if err != nil {
		return nil, kgerr.Wrap(kgerr.KindUnavailable, op, "start ingest workflow", err)
	}
	s.log.Info("ingest workflow submitted", "workflow_id", run.GetID(), "title", in.Title)
	return &Submission{WorkflowID: run.GetID(), RunID: run.GetRunID(), Status: "running"}, nil
}

func (s *Service) SubmitReason(ctx context.Context) (*Submission, error) {
	const op = "workflows.SubmitReason"
	if !s.Enabled() {
		return nil, kgerr.New(kgerr.KindNotSupported, op, "workflow engine not configured")
	}

	opts := temporalsdkclient.StartWorkflowOptions{
		ID:        "reason-" + uuid.NewString(),
		TaskQueue: s.taskQueue,
	}
	run, err := s.tc.ExecuteWorkflow(ctx, opts, WorkflowReason)
	if err != nil {
		return nil, kgerr.Wrap(kgerr.KindUnavailable, op, "start reason workflow", err)
	}
	s.log.Info("reason workflow submitted", "workflow_id", run.GetID())
	return &Submission{WorkflowID: run.GetID(), RunID: run.GetRunID(), Status: "running"}, nil
}

// Status describes a workflow and, once it completed, attaches its result.
func (s *Service) Status(ctx context.Context, workflowID string) (*StatusResult, error) {
	const op = "workflows.Status"
	if !s.Enabled() {
		return nil, kgerr.New(kgerr.KindNotSupported, op, "workflow engine not configured")
	}
	workflowID = strings.TrimSpace(workflowID)
	if workflowID == "" {
		return nil, kgerr.New(kgerr.KindValidation, op, "workflow id must not be empty")
	}

	desc, err := s.tc.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		var nfe *serviceerror.NotFound
		if errors.As(err, &nfe) {
			return nil, kgerr.Newf(kgerr.KindNotFound, op, "workflow %s not found", workflowID)
		}
		return nil, kgerr.Wrap(kgerr.KindUnavailable, op, "describe workflow", err)
	}

	info := desc.GetWorkflowExecutionInfo()
	out := &StatusResult{
		WorkflowID: workflowID,
		RunID:      info.GetExecution().GetRunId(),
		Status:     statusLabel(info.GetStatus()),
	}
	if info.GetStatus() == enums.WORKFLOW_EXECUTION_STATUS_COMPLETED {
		var result map[string]any
		if err := s.tc.GetWorkflow(ctx, workflowID, "").Get(ctx, &result); err != nil {
			s.log.Warn("workflow result fetch failed", "workflow_id", workflowID, "error", err)
		} else {
			out.Result = result
		}
	}
	return out, nil
}

func statusLabel(st enums.WorkflowExecutionStatus) string {
	switch st {
	case enums.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return "running"
	case enums.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return "completed"
	case enums.WORKFLOW_EXECUTION_STATUS_FAILED:
		return "failed"
	case enums.WORKFLOW_EXECUTION_STATUS_CANCELED:
		return "canceled"
	case enums.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return "terminated"
	case enums.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return "timed_out"
	case enums.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return "continued_as_new"
	default:
		return "unknown"
	}
}
