// Package app wires configuration, storage, services and the HTTP surface
// into one process.
package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/mnemograph/mnemograph-backend/internal/agents"
	"github.com/mnemograph/mnemograph-backend/internal/audit"
	"github.com/mnemograph/mnemograph-backend/internal/decay"
	"github.com/mnemograph/mnemograph-backend/internal/embedding"
	"github.com/mnemograph/mnemograph-backend/internal/handlers"
	"github.com/mnemograph/mnemograph-backend/internal/ingestion"
	"github.com/mnemograph/mnemograph-backend/internal/observability"
	"github.com/mnemograph/mnemograph-backend/internal/orchestrator"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/platform/redisdb"
	"github.com/mnemograph/mnemograph-backend/internal/query"
	"github.com/mnemograph/mnemograph-backend/internal/server"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
	"github.com/mnemograph/mnemograph-backend/internal/workflows"
)

type App struct {
	Cfg    Config
	Log    *logger.Logger
	Store  storage.Adapter
	Router *gin.Engine

	rdb          *goredis.Client
	decayRunner  *decay.Runner
	temporal     temporalsdkclient.Client
	worker       *workflows.Runner
	otelShutdown func(context.Context) error
}

// New performs the full bootstrap. Optional subsystems (redis cache,
// postgres audit, temporal) come up only when their env is set; the
// configured storage backend is mandatory and fails the boot.
func New(ctx context.Context) (*App, error) {
	cfg := LoadConfig()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}

	otelShutdown := observability.Init(ctx, log, observability.Config{
		ServiceName: "mnemograph",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	store, err := resolveStorage(ctx, log, cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := redisdb.NewFromEnv(log)
	if err != nil {
		log.Warn("redis unavailable, embedding cache disabled", "error", err)
		rdb = nil
	}

	var embedder embedding.Embedder = embedding.NewTFIDF(cfg.EmbeddingDim, nil)
	if rdb != nil {
		embedder = embedding.NewCached(embedder, rdb, cfg.EmbedCacheTTL, log)
	}

	pipeline := ingestion.NewPipeline(ingestion.Config{
		ChunkSize:           cfg.ChunkSize,
		Overlap:             cfg.ChunkOverlap,
		AutoExtractConcepts: cfg.AutoConceptExtraction,
	}, embedder, nil, log)
	batch := ingestion.NewBatchProcessor(pipeline, store, cfg.BatchWorkers, log)

	orch := orchestrator.New(orchestrator.Config{
		AutoApproveConfidence: cfg.AutoApproveConfidence,
	}, store, log)

	auditDB, err := audit.NewPostgres(log)
	if err != nil {
		return nil, err
	}
	var rec audit.Recorder = audit.NopRecorder{}
	if auditDB != nil {
		rec = audit.NewRecorder(auditDB, log)
		orch.SetDecisionRecorder(rec)
	}

	var graphAgents []agents.GraphAgent
	if cfg.EnableGraphReasoning {
		graphAgents = []agents.GraphAgent{
			agents.NewAlignment(cfg.AlignmentThreshold, log),
			agents.NewContradiction(log),
			agents.NewResearch(log),
		}
	}
	ingestAgent := agents.NewIngestion(pipeline, log)
	curriculum := agents.NewCurriculum(cfg.CurriculumDepth, log)

	decayRunner := decay.NewRunner(decay.NewEngine(cfg.DecayConfig()), store, log)

	tc, err := workflows.NewClient(log)
	if err != nil {
		return nil, err
	}
	wfService := workflows.NewService(tc, log)
	var worker *workflows.Runner
	if tc != nil {
		worker, err = workflows.NewRunner(log, tc, &workflows.Activities{
			Log:          log,
			Pipeline:     pipeline,
			Store:        store,
			Orchestrator: orch,
			Agents:       graphAgents,
			Audit:        rec,
		})
		if err != nil {
			return nil, err
		}
	}

	var searchEmbedder embedding.Embedder
	if cfg.EnableVectorSearch {
		searchEmbedder = embedder
	}

	router := server.NewRouter(server.RouterConfig{
		HealthHandler:   handlers.NewHealthHandler(store),
		NodeHandler:     handlers.NewNodeHandler(store),
		EdgeHandler:     handlers.NewEdgeHandler(store),
		VectorHandler:   handlers.NewVectorHandler(store, searchEmbedder),
		QueryHandler:    handlers.NewQueryHandler(query.NewService(store, log)),
		AgentHandler:    handlers.NewAgentHandler(store, orch, graphAgents, ingestAgent, curriculum),
		IngestHandler:   handlers.NewIngestHandler(pipeline, batch, store, rec, log),
		WorkflowHandler: handlers.NewWorkflowHandler(wfService),
	})

	return &App{
		Cfg:          cfg,
		Log:          log,
		Store:        store,
		Router:       router,
		rdb:          rdb,
		decayRunner:  decayRunner,
		temporal:     tc,
		worker:       worker,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background loops. It returns immediately; the loops
// stop when ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	a.decayRunner.Start(ctx)
	if a.worker != nil {
		go func() {
			if err := a.worker.Start(ctx); err != nil && ctx.Err() == nil {
				a.Log.Error("temporal worker exited", "error", err)
			}
		}()
	}
}

// Run blocks serving HTTP on the configured port.
func (a *App) Run() error {
	addr := ":" + a.Cfg.Port
	a.Log.Info("http server listening", "addr", addr)
	return a.Router.Run(addr)
}

// Close releases external connections. Safe to call once, after the Start
// context has been cancelled.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.temporal != nil {
		a.temporal.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.Log.Warn("redis close failed", "error", err)
		}
	}
	if err := a.Store.Disconnect(ctx); err != nil {
		a.Log.Warn("storage disconnect failed", "error", err)
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("tracer shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
