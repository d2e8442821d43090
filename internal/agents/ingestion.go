package agents

import (
	"context"
	"fmt"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/ingestion"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

// Ingestion runs the document pipeline and proposes a concept node for
// every extracted concept the graph does not already know.
type Ingestion struct {
	pipeline *ingestion.Pipeline
	log      *logger.Logger
}

func NewIngestion(pipeline *ingestion.Pipeline, log *logger.Logger) *Ingestion {
	return &Ingestion{pipeline: pipeline, log: log.With("service", "IngestionAgent")}
}

func (a *Ingestion) Type() domain.AgentType { return domain.AgentIngestion }

// ProposeFromDocument processes one raw document and returns create_node
// proposals for its unknown concepts at confidence 0.8.
func (a *Ingestion) ProposeFromDocument(ctx context.Context, store storage.Adapter, title, raw string) ([]*domain.AgentProposal, *ingestion.Result, error) {
	res, err := a.pipeline.Process(ctx, title, raw)
	if err != nil {
		return nil, nil, err
	}

	var out []*domain.AgentProposal
	for _, concept := range res.Concepts {
		existing, err := store.SearchNodesByText(ctx, concept, 1)
		if err != nil {
			a.log.Warn("concept lookup failed, skipping proposals", "concept", concept, "error", err)
			return nil, res, nil
		}
		if len(existing) > 0 {
			continue
		}
		node := domain.NewNode(domain.KindConcept, concept, fmt.Sprintf("extracted from %q", title))
		node.CognitiveState.Confidence = 0.8
		node.Grounding.SourceRefs = []string{res.Document.SourceID}
		out = append(out, domain.NewProposal(
			domain.AgentIngestion,
			domain.ActionCreateNode,
			domain.CreateNodeTarget{Node: node},
			fmt.Sprintf("concept %q found in %q but absent from the graph", concept, title),
			0.8,
		))
	}
	return out, res, nil
}
