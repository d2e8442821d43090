// Package server assembles the gin router from the handler set. Handlers
// left nil simply do not get routes, which keeps optional surfaces
// (workflows, audit) out of the table when they are not configured.
package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mnemograph/mnemograph-backend/internal/handlers"
)

type RouterConfig struct {
	HealthHandler   *handlers.HealthHandler
	NodeHandler     *handlers.NodeHandler
	EdgeHandler     *handlers.EdgeHandler
	VectorHandler   *handlers.VectorHandler
	QueryHandler    *handlers.QueryHandler
	AgentHandler    *handlers.AgentHandler
	IngestHandler   *handlers.IngestHandler
	WorkflowHandler *handlers.WorkflowHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware("mnemograph"))
	r.Use(AttachRequestID())
	r.Use(CORS())

	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.Health)
	}

	if cfg.NodeHandler != nil {
		r.GET("/nodes", cfg.NodeHandler.List)
		r.POST("/nodes", cfg.NodeHandler.Create)
		r.POST("/nodes/bulk", cfg.NodeHandler.BulkCreate)
		r.GET("/nodes/search", cfg.NodeHandler.Search)
		r.GET("/nodes/:id", cfg.NodeHandler.Get)
		r.PUT("/nodes/:id", cfg.NodeHandler.Update)
		r.DELETE("/nodes/:id", cfg.NodeHandler.Delete)
	}

	if cfg.EdgeHandler != nil {
		r.GET("/edges", cfg.EdgeHandler.List)
		r.POST("/edges", cfg.EdgeHandler.Create)
		r.POST("/edges/bulk", cfg.EdgeHandler.BulkCreate)
		r.GET("/edges/:id", cfg.EdgeHandler.Get)
		r.PUT("/edges/:id", cfg.EdgeHandler.Update)
		r.DELETE("/edges/:id", cfg.EdgeHandler.Delete)
		r.GET("/path", cfg.EdgeHandler.Path)
	}

	if cfg.VectorHandler != nil {
		r.POST("/vectors", cfg.VectorHandler.Store)
		r.POST("/vectors/search", cfg.VectorHandler.Search)
		r.GET("/vectors/:id", cfg.VectorHandler.Get)
		r.DELETE("/vectors/:id", cfg.VectorHandler.Delete)
		r.PATCH("/vectors/:id/decay", cfg.VectorHandler.UpdateDecay)
	}

	if cfg.QueryHandler != nil {
		r.GET("/query", cfg.QueryHandler.Semantic)
		r.POST("/query", cfg.QueryHandler.Semantic)
		r.GET("/query/compare", cfg.QueryHandler.Compare)
		r.GET("/query/prerequisites/:id", cfg.QueryHandler.Prerequisites)
	}

	if cfg.AgentHandler != nil {
		r.POST("/agents", cfg.AgentHandler.Run)
		r.GET("/agents", cfg.AgentHandler.Proposals)
		r.GET("/proposals/:id", cfg.AgentHandler.Proposal)
		r.POST("/proposals/:id/approve", cfg.AgentHandler.Approve)
		r.POST("/proposals/:id/reject", cfg.AgentHandler.Reject)
	}

	if cfg.IngestHandler != nil {
		r.POST("/ingest", cfg.IngestHandler.Ingest)
		r.POST("/ingest/batch", cfg.IngestHandler.SubmitBatch)
		r.GET("/ingest/batch/:id", cfg.IngestHandler.BatchStatus)
		r.POST("/ingest/batch/:id/cancel", cfg.IngestHandler.CancelBatch)
		r.POST("/ingest/batch/:id/rollback", cfg.IngestHandler.RollbackBatch)
		r.GET("/documents", cfg.IngestHandler.Documents)
	}

	if cfg.WorkflowHandler != nil {
		r.POST("/workflows/:kind", cfg.WorkflowHandler.Submit)
		r.GET("/workflows/:id", cfg.WorkflowHandler.Status)
	}

	return r
}
