package workflows

import (
	"context"
	"testing"
	"time"

	enums "go.temporal.io/api/enums/v1"

	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TEMPORAL_ADDRESS", "")
	t.Setenv("TEMPORAL_NAMESPACE", "")
	t.Setenv("TEMPORAL_TASK_QUEUE", "")

	cfg := LoadConfig()
	if cfg.Address != "" {
		t.Fatalf("address: %q", cfg.Address)
	}
	if cfg.Namespace != "mnemograph" || cfg.TaskQueue != "mnemograph" {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestDisabledServiceAnswersNotSupported(t *testing.T) {
	s := NewService(nil, mustTestLogger(t))
	ctx := context.Background()

	if _, err := s.SubmitIngest(ctx, IngestInput{Title: "t", Raw: "body"}); !kgerr.Is(err, kgerr.KindNotSupported) {
		t.Fatalf("SubmitIngest: %v", err)
	}
	if _, err := s.SubmitReason(ctx); !kgerr.Is(err, kgerr.KindNotSupported) {
		t.Fatalf("SubmitReason: %v", err)
	}
	if _, err := s.Status(ctx, "ingest-abc"); !kgerr.Is(err, kgerr.KindNotSupported) {
		t.Fatalf("Status: %v", err)
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[enums.WorkflowExecutionStatus]string{
		enums.WORKFLOW_EXECUTION_STATUS_RUNNING:   "running",
		enums.WORKFLOW_EXECUTION_STATUS_COMPLETED: "completed",
		enums.WORKFLOW_EXECUTION_STATUS_FAILED:    "failed",
		enums.WORKFLOW_EXECUTION_STATUS_CANCELED:  "canceled",
	}
	for st, want := range cases {
		if got := statusLabel(st); got != want {
			t.Fatalf("statusLabel(%v): want=%q got=%q", st, want, got)
		}
	}
	if got := statusLabel(enums.WorkflowExecutionStatus(99)); got != "unknown" {
		t.Fatalf("unknown status: %q", got)
	}
}

func TestClampBackoff(t *testing.T) {
	base := 250 * time.Millisecond
	max := 5 * time.Second

	if got := clampBackoff(base, max, 1); got != base {
		t.Fatalf("first attempt: %v", got)
	}
	if got := clampBackoff(base, max, 2); got != 2*base {
		t.Fatalf("second attempt: %v", got)
	}
	if got := clampBackoff(base, max, 20); got != max {
		t.Fatalf("must clamp at max: %v", got)
	}
}
