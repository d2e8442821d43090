package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mnemograph/mnemograph-backend/internal/agents"
	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/orchestrator"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type AgentHandler struct {
	store       storage.Adapter
	orch        *orchestrator.Orchestrator
	graphAgents map[string]agents.GraphAgent
	ingest      *agents.Ingestion
	curriculum  *agents.Curriculum
}

func NewAgentHandler(
	store storage.Adapter,
	orch *orchestrator.Orchestrator,
	graphAgents []agents.GraphAgent,
	ingest *agents.Ingestion,
	curriculum *agents.Curriculum,
) *AgentHandler {
	byType := make(map[string]agents.GraphAgent, len(graphAgents))
	for _, a := range graphAgents {
		byType[string(a.Type())] = a
	}
	return &AgentHandler{
		store:       store,
		orch:        orch,
		graphAgents: byType,
		ingest:      ingest,
		curriculum:  curriculum,
	}
}

// canonicalAction maps the short action names of the external contract onto
// the agent type labels used internally. Both spellings are accepted.
func canonicalAction(raw string) string {
	action := strings.ToLower(strings.TrimSpace(raw))
	switch action {
	case "ingest":
		return string(domain.AgentIngestion)
	case "align":
		return string(domain.AgentAlignment)
	case "contradict":
		return string(domain.AgentContradiction)
	default:
		return action
	}
}

type agentRunRequest struct {
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content,omitempty"`
	Target  string   `json:"target,omitempty"`
	Known   []string `json:"known,omitempty"`
}

// POST /agents?action= runs one agent (or the full cycle) and enqueues its
// proposals.
func (h *AgentHandler) Run(c *gin.Context) {
	const op = "handlers.RunAgent"
	ctx := c.Request.Context()
	action := canonicalAction(c.Query("action"))

	switch action {
	case "full":
		ordered := make([]agents.GraphAgent, 0, len(h.graphAgents))
		for _, name := range []string{
			string(domain.AgentAlignment),
			string(domain.AgentContradiction),
			string(domain.AgentResearch),
		} {
			if a, ok := h.graphAgents[name]; ok {
				ordered = append(ordered, a)
			}
		}
		report, err := h.orch.FullWorkflow(ctx, ordered...)
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondOK(c, report)

	case "ingestion":
		if h.ingest == nil {
			RespondError(c, kgerr.New(kgerr.KindNotSupported, op, "ingestion agent not configured"))
			return
		}
		var req agentRunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBindError(c, op, err)
			return
		}
		proposals, result, err := h.ingest.ProposeFromDocument(ctx, h.store, req.Title, req.Content)
		if err != nil {
			RespondError(c, err)
			return
		}
		approved, err := h.orch.Enqueue(ctx, proposals)
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondOK(c, gin.H{
			"generated":     len(proposals),
			"auto_approved": approved,
			"document":      result.Document,
			"concepts":      result.Concepts,
		})

	case "curriculum":
		if h.curriculum == nil {
			RespondError(c, kgerr.New(kgerr.KindNotSupported, op, "curriculum agent not configured"))
			return
		}
		var req agentRunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBindError(c, op, err)
			return
		}
		known := make(map[string]bool, len(req.Known))
		for _, id := range req.Known {
			known[id] = true
		}
		plan, err := h.curriculum.PlanFor(ctx, h.store, req.Target, known)
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondOK(c, plan)

	default:
		agent, ok := h.graphAgents[action]
		if !ok {
			RespondError(c, kgerr.Newf(kgerr.KindValidation, op, "unknown agent action %q", action))
			return
		}
		proposals, err := agent.Propose(ctx, h.store)
		if err != nil {
			RespondError(c, err)
			return
		}
		approved, err := h.orch.Enqueue(ctx, proposals)
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondOK(c, gin.H{"generated": len(proposals), "auto_approved": approved})
	}
}

// GET /agents?status= lists queued proposals.
func (h *AgentHandler) Proposals(c *gin.Context) {
	status := domain.ProposalStatus(strings.TrimSpace(c.Query("status")))
	items := h.orch.Proposals(status)
	RespondOK(c, gin.H{"items": items, "total": len(items)})
}

// GET /proposals/:id
func (h *AgentHandler) Proposal(c *gin.Context) {
	p, err := h.orch.Proposal(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, p)
}

// POST /proposals/:id/approve
func (h *AgentHandler) Approve(c *gin.Context) {
	p, err := h.orch.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, p)
}

// POST /proposals/:id/reject
func (h *AgentHandler) Reject(c *gin.Context) {
	p, err := h.orch.Reject(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, p)
}
