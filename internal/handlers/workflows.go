package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/workflows"
)

type WorkflowHandler struct {
	svc *workflows.Service
}

func NewWorkflowHandler(svc *workflows.Service) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// POST /workflows/:kind
func (h *WorkflowHandler) Submit(c *gin.Context) {
	const op = "handlers.SubmitWorkflow"
	switch strings.ToLower(strings.TrimSpace(c.Param("kind"))) {
	case "ingest":
		var in workflows.IngestInput
		if err := c.ShouldBindJSON(&in); err != nil {
			RespondBindError(c, op, err)
			return
		}
		sub, err := h.svc.SubmitIngest(c.Request.Context(), in)
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondStatus(c, 202, sub)
	case "reason":
		sub, err := h.svc.SubmitReason(c.Request.Context())
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondStatus(c, 202, sub)
	default:
		RespondError(c, kgerr.Newf(kgerr.KindValidation, op, "unknown workflow kind %q", c.Param("kind")))
	}
}

// GET /workflows/:id
func (h *WorkflowHandler) Status(c *gin.Context) {
	st, err := h.svc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, st)
}
