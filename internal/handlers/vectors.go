package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/embedding"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type VectorHandler struct {
	store    storage.Adapter
	embedder embedding.Embedder
}

func NewVectorHandler(store storage.Adapter, embedder embedding.Embedder) *VectorHandler {
	return &VectorHandler{store: store, embedder: embedder}
}

// POST /vectors
func (h *VectorHandler) Store(c *gin.Context) {
	var v domain.VectorPayload
	if err := c.ShouldBindJSON(&v); err != nil {
		RespondBindError(c, "handlers.StoreVector", err)
		return
	}
	now := time.Now().UTC()
	if strings.TrimSpace(v.ID) == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = now
	}

	stored, err := h.store.StoreVector(c.Request.Context(), &v)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, stored)
}

// GET /vectors/:id
func (h *VectorHandler) Get(c *gin.Context) {
	v, err := h.store.GetVector(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, v)
}

// DELETE /vectors/:id
func (h *VectorHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.store.DeleteVector(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !deleted {
		RespondError(c, kgerr.Newf(kgerr.KindNotFound, "handlers.DeleteVector", "vector %s not found", id))
		return
	}
	RespondOK(c, gin.H{"deleted": true, "id": id})
}

type vectorSearchRequest struct {
	Embedding []float64      `json:"embedding,omitempty"`
	Text      string         `json:"text,omitempty"`
	K         int            `json:"k,omitempty"`
	Filter    map[string]any `json:"filter,omitempty"`
}

// POST /vectors/search accepts either a raw embedding or text to embed.
func (h *VectorHandler) Search(c *gin.Context) {
	const op = "handlers.SearchVectors"
	var req vectorSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, op, err)
		return
	}

	emb := req.Embedding
	if len(emb) == 0 {
		if strings.TrimSpace(req.Text) == "" {
			RespondError(c, kgerr.New(kgerr.KindValidation, op, "embedding or text is required"))
			return
		}
		if h.embedder == nil {
			RespondError(c, kgerr.New(kgerr.KindNotSupported, op, "text search requires an embedder"))
			return
		}
		var err error
		emb, err = h.embedder.Embed(c.Request.Context(), req.Text)
		if err != nil {
			RespondError(c, err)
			return
		}
	}

	results, err := h.store.SearchVectors(c.Request.Context(), emb, req.K, storage.VectorFilter(req.Filter))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": results, "total": len(results)})
}

type vectorDecayRequest struct {
	Score float64 `json:"score"`
}

// PATCH /vectors/:id/decay
func (h *VectorHandler) UpdateDecay(c *gin.Context) {
	var req vectorDecayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, "handlers.UpdateVectorDecay", err)
		return
	}
	id := c.Param("id")
	if err := h.store.UpdateVectorDecay(c.Request.Context(), id, req.Score); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id, "decay_score": req.Score})
}
