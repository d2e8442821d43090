package workflows

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/mnemograph/mnemograph-backend/internal/agents"
	"github.com/mnemograph/mnemograph-backend/internal/audit"
	"github.com/mnemograph/mnemograph-backend/internal/ingestion"
	"github.com/mnemograph/mnemograph-backend/internal/orchestrator"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type Activities struct {
	Log          *logger.Logger
	Pipeline     *ingestion.Pipeline
	Store        storage.Adapter
	Orchestrator *orchestrator.Orchestrator
	Agents       []agents.GraphAgent
	Audit        audit.Recorder
}

func (a *Activities) Ingest(ctx context.Context, in IngestInput) (IngestResult, error) {
	var res IngestResult
	if a == nil || a.Pipeline == nil || a.Store == nil {
		return res, fmt.Errorf("ingest activity not configured")
	}

	stopHB := startHeartbeat(ctx)
	defer stopHB()

	out, err := a.Pipeline.Ingest(ctx, a.Store, in.Title, in.Raw)
	if err != nil {
		return res, err
	}

	if a.Audit != nil {
		if err := a.Audit.RecordDocument(ctx, out.Document); err != nil && a.Log != nil {
			a.Log.Warn("audit document record failed", "document_id", out.Document.ID, "error", err)
		}
	}

	res.DocumentID = out.Document.ID
	res.Title = out.Document.Title
	res.ChunkCount = len(out.Chunks)
	res.Embeddings = len(out.Embeddings)
	res.Concepts = out.Concepts
	return res, nil
}

func (a *Activities) Reason(ctx context.Context) (ReasonResult, error) {
	var res ReasonResult
	if a == nil || a.Orchestrator == nil {
		return res, fmt.Errorf("reason activity not configured")
	}

	stopHB := startHeartbeat(ctx)
	defer stopHB()

	report, err := a.Orchestrator.FullWorkflow(ctx, a.Agents...)
	if err != nil {
		return res, err
	}
	res.Generated = report.Generated
	res.AutoApproved = report.AutoApproved
	return res, nil
}

func startHeartbeat(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		tick := time.NewTicker(10 * time.Second)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-tick.C:
				activity.RecordHeartbeat(ctx)
			}
		}
	}()
	return func() { close(done) }
}
