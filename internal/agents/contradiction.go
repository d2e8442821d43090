package agents

import (
	"context"
	"fmt"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

// Contradiction flags node pairs joined by adversarial relations.
type Contradiction struct {
	log *logger.Logger
}

func NewContradiction(log *logger.Logger) *Contradiction {
	return &Contradiction{log: log.With("service", "ContradictionAgent")}
}

func (c *Contradiction) Type() domain.AgentType { return domain.AgentContradiction }

func (c *Contradiction) Propose(ctx context.Context, store storage.Adapter) ([]*domain.AgentProposal, error) {
	var out []*domain.AgentProposal
	for _, relation := range []domain.Relation{domain.RelCompetesWith, domain.RelFailsOn} {
		edges, err := store.EdgesByRelation(ctx, relation)
		if err != nil {
			c.log.Warn("contradiction scan aborted on read error", "relation", relation, "error", err)
			return nil, nil
		}
		for _, e := range edges {
			out = append(out, domain.NewProposal(
				domain.AgentContradiction,
				domain.ActionFlagConflict,
				domain.FlagConflictTarget{NodeA: e.FromNode, NodeB: e.ToNode},
				fmt.Sprintf("%s edge %s marks a potential contradiction", relation, e.ID),
				conflictConfidence(e.Confidence),
			))
		}
	}
	return out, nil
}

// conflictConfidence maps edge confidence into [0.70, 0.90].
func conflictConfidence(edgeConfidence float64) float64 {
	return 0.70 + 0.20*edgeConfidence
}
