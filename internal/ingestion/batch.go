package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

const DefaultBatchWorkers = 4

// BatchDocument is one unit of work in a batch job.
type BatchDocument struct {
	Title string `json:"title"`
	Raw   string `json:"raw"`
}

// BatchProcessor fans a document queue out to a fixed worker pool. Each
// document is ingested in isolation; one failure never aborts the batch.
type BatchProcessor struct {
	pipeline *Pipeline
	store    storage.Adapter
	log      *logger.Logger
	workers  int

	mu      sync.Mutex
	jobs    map[string]*domain.BatchJob
	cancels map[string]context.CancelFunc

	// txMu serializes the per-document transaction so workers sharing a
	// coarse-transaction backend never interleave writes.
	txMu sync.Mutex
}

func NewBatchProcessor(pipeline *Pipeline, store storage.Adapter, workers int, log *logger.Logger) *BatchProcessor {
	if workers < 1 {
		workers = DefaultBatchWorkers
	}
	return &BatchProcessor{
		pipeline: pipeline,
		store:    store,
		log:      log.With("service", "BatchProcessor"),
		workers:  workers,
		jobs:     make(map[string]*domain.BatchJob),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Submit registers a job and starts processing in the background. The
// returned id can be polled with Job and aborted with CancelJob.
func (b *BatchProcessor) Submit(ctx context.Context, docs []BatchDocument) (string, error) {
	if len(docs) == 0 {
		return "", kgerr.New(kgerr.KindValidation, "ingestion.BatchProcessor.Submit", "no documents in batch")
	}
	job := &domain.BatchJob{
		ID:        uuid.NewString(),
		Total:     len(docs),
		Status:    domain.BatchRunning,
		StartedAt: time.Now().UTC(),
	}
	jobCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.jobs[job.ID] = job
	b.cancels[job.ID] = cancel
	b.mu.Unlock()

	go b.run(jobCtx, job.ID, docs)
	return job.ID, nil
}

func (b *BatchProcessor) run(ctx context.Context, jobID string, docs []BatchDocument) {
	queue := make(chan BatchDocument)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < b.workers; i++ {
		g.Go(func() error {
			for doc := range queue {
				if ctx.Err() != nil {
					// Drain the remainder of a cancelled job.
					b.recordFailure(jobID, doc.Title, ctx.Err())
					continue
				}
				if err := b.ingestOne(ctx, jobID, doc); err != nil {
					b.recordFailure(jobID, doc.Title, err)
					continue
				}
				b.recordSuccess(jobID)
			}
			return nil
		})
	}
	for _, doc := range docs {
		queue <- doc
	}
	close(queue)
	_ = g.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[jobID]
	if !ok {
		return
	}
	now := time.Now().UTC()
	job.FinishedAt = &now
	if job.Status == domain.BatchRunning {
		if job.Failed == job.Total {
			job.Status = domain.BatchFailed
		} else {
			job.Status = domain.BatchCompleted
		}
	}
	delete(b.cancels, jobID)
	b.log.Info("batch job finished",
		"job_id", jobID, "status", job.Status, "processed", job.Processed, "failed", job.Failed)
}

// ingestOne runs the pipeline and stamps every chunk with the job id so a
// later rollback can find everything the job touched.
func (b *BatchProcessor) ingestOne(ctx context.Context, jobID string, doc BatchDocument) error {
	res, err := b.pipeline.Process(ctx, doc.Title, doc.Raw)
	if err != nil {
		return err
	}
	b.txMu.Lock()
	defer b.txMu.Unlock()
	if err := b.store.BeginTx(ctx); err != nil {
		return err
	}
	var createdNodes []string
	for i, chunk := range res.Chunks {
		if _, err := b.store.StoreChunk(ctx, chunk); err != nil {
			b.abortIngest(ctx, res, createdNodes)
			return err
		}
		if _, err := b.store.StoreVector(ctx, res.Embeddings[i]); err != nil {
			b.abortIngest(ctx, res, createdNodes)
			return err
		}
	}
	for _, concept := range res.Concepts {
		existing, err := b.store.SearchNodesByText(ctx, concept, 1)
		if err != nil {
			b.abortIngest(ctx, res, createdNodes)
			return err
		}
		if len(existing) > 0 {
			continue
		}
		n := domain.NewNode(domain.KindConcept, concept, fmt.Sprintf("extracted from %q", doc.Title))
		n.CognitiveState.Confidence = 0.8
		n.Grounding.SourceRefs = []string{jobID, res.Document.SourceID}
		created, err := b.store.CreateNode(ctx, n)
		if err != nil {
			b.abortIngest(ctx, res, createdNodes)
			return err
		}
		createdNodes = append(createdNodes, created.ID)
	}
	return b.store.CommitTx(ctx)
}

// abortIngest undoes one document's partial writes: a snapshot rollback
// when the backend supports it, explicit deletes otherwise.
func (b *BatchProcessor) abortIngest(ctx context.Context, res *Result, createdNodes []string) {
	if err := b.store.RollbackTx(ctx); err == nil {
		return
	}
	_, _ = b.store.DeleteChunksBySource(ctx, res.Document.SourceID)
	for _, v := range res.Embeddings {
		_, _ = b.store.DeleteVector(ctx, v.ID)
	}
	for _, id := range createdNodes {
		_, _ = b.store.DeleteNode(ctx, id)
	}
}

func (b *BatchProcessor) recordSuccess(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if job, ok := b.jobs[jobID]; ok {
		job.Processed++
	}
}

func (b *BatchProcessor) recordFailure(jobID, title string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if job, ok := b.jobs[jobID]; ok {
		job.Failed++
		job.Errors = append(job.Errors, fmt.Sprintf("%s: %v", title, err))
	}
}

// Job returns a copy of the job record.
func (b *BatchProcessor) Job(id string) (*domain.BatchJob, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[id]
	if !ok {
		return nil, kgerr.Newf(kgerr.KindNotFound, "ingestion.BatchProcessor.Job", "batch job %s not found", id)
	}
	out := *job
	out.Errors = append([]string(nil), job.Errors...)
	return &out, nil
}

// CancelJob stops the workers; queued documents for the job are drained and
// counted as failed.
func (b *BatchProcessor) CancelJob(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[id]
	if !ok {
		return kgerr.Newf(kgerr.KindNotFound, "ingestion.BatchProcessor.CancelJob", "batch job %s not found", id)
	}
	if cancel, ok := b.cancels[id]; ok {
		cancel()
	}
	job.Status = domain.BatchCancelled
	return nil
}

// Rollback deletes every node the job created, identified by the job id in
// grounding.source_refs, inside one transaction.
func (b *BatchProcessor) Rollback(ctx context.Context, jobID string) (int, error) {
	const op = "ingestion.BatchProcessor.Rollback"
	if err := b.store.BeginTx(ctx); err != nil {
		return 0, err
	}
	var doomed []string
	for page := 1; ; page++ {
		nodes, err := b.store.ListNodes(ctx, page, 200)
		if err != nil {
			_ = b.store.RollbackTx(ctx)
			return 0, err
		}
		for _, n := range nodes.Items {
			if containsRef(n.Grounding.SourceRefs, jobID) {
				doomed = append(doomed, n.ID)
			}
		}
		if !nodes.HasMore {
			break
		}
	}
	deleted := 0
	for _, id := range doomed {
		if _, err := b.store.DeleteNode(ctx, id); err != nil {
			_ = b.store.RollbackTx(ctx)
			return 0, kgerr.Wrap(kgerr.KindExecution, op, "delete job node", err)
		}
		deleted++
	}
	if err := b.store.CommitTx(ctx); err != nil {
		_ = b.store.RollbackTx(ctx)
		return 0, err
	}
	return deleted, nil
}

func containsRef(refs []string, want string) bool {
	for _, r := range refs {
		if r == want {
			return true
		}
	}
	return false
}
