package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mnemograph/mnemograph-backend/internal/audit"
	"github.com/mnemograph/mnemograph-backend/internal/ingestion"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type IngestHandler struct {
	pipeline *ingestion.Pipeline
	batch    *ingestion.BatchProcessor
	store    storage.Adapter
	audit    audit.Recorder
	log      *logger.Logger
}

func NewIngestHandler(
	pipeline *ingestion.Pipeline,
	batch *ingestion.BatchProcessor,
	store storage.Adapter,
	rec audit.Recorder,
	log *logger.Logger,
) *IngestHandler {
	return &IngestHandler{
		pipeline: pipeline,
		batch:    batch,
		store:    store,
		audit:    rec,
		log:      log.With("handler", "Ingest"),
	}
}

type ingestRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// POST /ingest
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, "handlers.Ingest", err)
		return
	}

	result, err := h.pipeline.Ingest(c.Request.Context(), h.store, req.Title, req.Content)
	if err != nil {
		RespondError(c, err)
		return
	}
	if h.audit != nil {
		if err := h.audit.RecordDocument(c.Request.Context(), result.Document); err != nil {
			h.log.Warn("audit document record failed", "document_id", result.Document.ID, "error", err)
		}
	}

	RespondCreated(c, gin.H{
		"document":    result.Document,
		"chunk_count": len(result.Chunks),
		"embeddings":  len(result.Embeddings),
		"concepts":    result.Concepts,
	})
}

type batchRequest struct {
	Documents []ingestion.BatchDocument `json:"documents"`
}

// POST /ingest/batch
func (h *IngestHandler) SubmitBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, "handlers.SubmitBatch", err)
		return
	}
	jobID, err := h.batch.Submit(c.Request.Context(), req.Documents)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondStatus(c, 202, gin.H{"job_id": jobID, "total": len(req.Documents)})
}

// GET /ingest/batch/:id
func (h *IngestHandler) BatchStatus(c *gin.Context) {
	job, err := h.batch.Job(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, job)
}

// POST /ingest/batch/:id/cancel
func (h *IngestHandler) CancelBatch(c *gin.Context) {
	id := c.Param("id")
	if err := h.batch.CancelJob(id); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"job_id": id, "cancelled": true})
}

// POST /ingest/batch/:id/rollback
func (h *IngestHandler) RollbackBatch(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.batch.Rollback(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"job_id": id, "deleted_nodes": deleted})
}

// GET /documents?limit= lists recently ingested documents from the audit
// store when one is configured.
func (h *IngestHandler) Documents(c *gin.Context) {
	docs, err := h.audit.RecentDocuments(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": docs, "total": len(docs)})
}
