package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type NodeHandler struct {
	store storage.Adapter
}

func NewNodeHandler(store storage.Adapter) *NodeHandler {
	return &NodeHandler{store: store}
}

// GET /nodes?page=&limit=&type=&search= (kind accepted as an alias of type)
func (h *NodeHandler) List(c *gin.Context) {
	if q := strings.TrimSpace(c.Query("search")); q != "" {
		nodes, err := h.store.SearchNodesByText(c.Request.Context(), q, queryInt(c, "limit", 20))
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondOK(c, gin.H{"items": nodes, "total": len(nodes)})
		return
	}

	kind := strings.TrimSpace(c.Query("type"))
	if kind == "" {
		kind = strings.TrimSpace(c.Query("kind"))
	}
	if kind != "" {
		nodes, err := h.store.NodesByType(c.Request.Context(), domain.NodeKind(kind), queryInt(c, "limit", 0))
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondOK(c, gin.H{"items": nodes, "total": len(nodes)})
		return
	}

	page, err := h.store.ListNodes(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, page)
}

// POST /nodes
func (h *NodeHandler) Create(c *gin.Context) {
	var n domain.Node
	if err := c.ShouldBindJSON(&n); err != nil {
		RespondBindError(c, "handlers.CreateNode", err)
		return
	}
	applyNodeDefaults(&n)

	created, err := h.store.CreateNode(c.Request.Context(), &n)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, created)
}

// GET /nodes/:id
func (h *NodeHandler) Get(c *gin.Context) {
	n, err := h.store.GetNode(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, n)
}

// PUT /nodes/:id
func (h *NodeHandler) Update(c *gin.Context) {
	var patch domain.NodePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondBindError(c, "handlers.UpdateNode", err)
		return
	}
	n, err := h.store.UpdateNode(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, n)
}

// DELETE /nodes/:id
func (h *NodeHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.store.DeleteNode(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !deleted {
		RespondError(c, kgerr.Newf(kgerr.KindNotFound, "handlers.DeleteNode", "node %s not found", id))
		return
	}
	RespondOK(c, gin.H{"deleted": true, "id": id})
}

// GET /nodes/search?q=&limit=
func (h *NodeHandler) Search(c *gin.Context) {
	nodes, err := h.store.SearchNodesByText(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 20))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": nodes, "total": len(nodes)})
}

type bulkNodesRequest struct {
	Nodes []*domain.Node `json:"nodes"`
}

// POST /nodes/bulk
func (h *NodeHandler) BulkCreate(c *gin.Context) {
	var req bulkNodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, "handlers.BulkCreateNodes", err)
		return
	}
	for _, n := range req.Nodes {
		if n != nil {
			applyNodeDefaults(n)
		}
	}

	result, err := h.store.BulkCreateNodes(c.Request.Context(), req.Nodes)
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

// applyNodeDefaults fills server-generated fields on an API-supplied node.
func applyNodeDefaults(n *domain.Node) {
	now := time.Now().UTC()
	if strings.TrimSpace(n.ID) == "" {
		n.ID = uuid.NewString()
	}
	if n.CognitiveState == (domain.CognitiveState{}) {
		n.CognitiveState = domain.CognitiveState{Strength: 1.0, Activation: 0.5, Confidence: 0.5}
	}
	if n.Temporal.IntroducedAt.IsZero() {
		n.Temporal.IntroducedAt = now
	}
	if n.Temporal.LastReinforcedAt.IsZero() {
		n.Temporal.LastReinforcedAt = now
	}
	if n.Temporal.PeakRelevanceAt.IsZero() {
		n.Temporal.PeakRelevanceAt = now
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = now
	}
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
