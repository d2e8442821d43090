package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/query"
)

type QueryHandler struct {
	svc *query.Service
}

func NewQueryHandler(svc *query.Service) *QueryHandler {
	return &QueryHandler{svc: svc}
}

// GET /query?q=&limit= and POST /query with a full request body.
func (h *QueryHandler) Semantic(c *gin.Context) {
	var req query.Request
	if c.Request.Method == "POST" {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBindError(c, "handlers.Query", err)
			return
		}
	} else {
		req.Query = c.Query("q")
		req.Limit = queryInt(c, "limit", 0)
	}

	resp, err := h.svc.Semantic(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, resp)
}

// GET /query/compare?a=&b=
func (h *QueryHandler) Compare(c *gin.Context) {
	a := strings.TrimSpace(c.Query("a"))
	b := strings.TrimSpace(c.Query("b"))
	if a == "" || b == "" {
		RespondError(c, kgerr.New(kgerr.KindValidation, "handlers.Compare", "a and b are required"))
		return
	}
	cmp, err := h.svc.Compare(c.Request.Context(), a, b)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, cmp)
}

// GET /query/prerequisites/:id?depth=
func (h *QueryHandler) Prerequisites(c *gin.Context) {
	nodes, err := h.svc.Prerequisites(c.Request.Context(), c.Param("id"), queryInt(c, "depth", 0))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": nodes, "total": len(nodes)})
}
