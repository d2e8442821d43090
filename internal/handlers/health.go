package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type HealthHandler struct {
	store storage.Adapter
}

func NewHealthHandler(store storage.Adapter) *HealthHandler {
	return &HealthHandler{store: store}
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	if !h.store.HealthCheck(c.Request.Context()) {
		RespondError(c, kgerr.New(kgerr.KindUnavailable, "handlers.Health", "storage backend unhealthy"))
		return
	}
	RespondOK(c, gin.H{"status": "ok", "backend": h.store.Type()})
}
