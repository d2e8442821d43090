package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type EdgeHandler struct {
	store storage.Adapter
}

func NewEdgeHandler(store storage.Adapter) *EdgeHandler {
	return &EdgeHandler{store: store}
}

// GET /edges?from=&to=&relation=
func (h *EdgeHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	relation := strings.TrimSpace(c.Query("relation"))

	var (
		edges []*domain.Edge
		err   error
	)
	switch {
	case from != "" && to != "":
		edges, err = h.store.EdgesBetween(ctx, from, to)
	case from != "":
		edges, err = h.store.EdgesFrom(ctx, from)
	case to != "":
		edges, err = h.store.EdgesTo(ctx, to)
	case relation != "":
		edges, err = h.store.EdgesByRelation(ctx, domain.Relation(relation))
	default:
		RespondError(c, kgerr.New(kgerr.KindValidation, "handlers.ListEdges",
			"provide at least one of from, to, relation"))
		return
	}
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": edges, "total": len(edges)})
}

// POST /edges
func (h *EdgeHandler) Create(c *gin.Context) {
	var e domain.Edge
	if err := c.ShouldBindJSON(&e); err != nil {
		RespondBindError(c, "handlers.CreateEdge", err)
		return
	}
	applyEdgeDefaults(&e)

	created, err := h.store.CreateEdge(c.Request.Context(), &e)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, created)
}

// GET /edges/:id
func (h *EdgeHandler) Get(c *gin.Context) {
	e, err := h.store.GetEdge(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, e)
}

// PUT /edges/:id
func (h *EdgeHandler) Update(c *gin.Context) {
	var patch domain.EdgePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondBindError(c, "handlers.UpdateEdge", err)
		return
	}
	e, err := h.store.UpdateEdge(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, e)
}

// DELETE /edges/:id
func (h *EdgeHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.store.DeleteEdge(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !deleted {
		RespondError(c, kgerr.Newf(kgerr.KindNotFound, "handlers.DeleteEdge", "edge %s not found", id))
		return
	}
	RespondOK(c, gin.H{"deleted": true, "id": id})
}

// GET /path?from=&to=&max_depth=
func (h *EdgeHandler) Path(c *gin.Context) {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		RespondError(c, kgerr.New(kgerr.KindValidation, "handlers.FindPath", "from and to are required"))
		return
	}
	edges, err := h.store.FindPath(c.Request.Context(), from, to, queryInt(c, "max_depth", 0))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"path": edges, "hops": len(edges)})
}

type bulkEdgesRequest struct {
	Edges []*domain.Edge `json:"edges"`
}

// POST /edges/bulk
func (h *EdgeHandler) BulkCreate(c *gin.Context) {
	var req bulkEdgesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, "handlers.BulkCreateEdges", err)
		return
	}
	for _, e := range req.Edges {
		if e != nil {
			applyEdgeDefaults(e)
		}
	}

	result, err := h.store.BulkCreateEdges(c.Request.Context(), req.Edges)
	if err != nil {
		RespondError(c, err)
		return
	}
	data := gin.H{"created_ids": result.CreatedIDs, "created": len(result.CreatedIDs)}
	if result.Err != nil {
		data["error"] = result.Err.Error()
	}
	RespondCreated(c, data)
}

func applyEdgeDefaults(e *domain.Edge) {
	now := time.Now().UTC()
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	if e.Weight == (domain.EdgeWeight{}) {
		e.Weight = domain.EdgeWeight{Strength: 0.5, ReinforcementRate: 0.1}
	}
	if e.Temporal.CreatedAt.IsZero() {
		e.Temporal.CreatedAt = now
	}
	if e.Temporal.LastUsedAt.IsZero() {
		e.Temporal.LastUsedAt = now
	}
}
