package agents

import (
	"context"
	"fmt"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

// Research surfaces knowledge gaps: nodes held with low confidence and
// nodes with no incident edges. Gap proposals are informational; their
// empty patch makes execution a no-op beyond the updated_at stamp.
type Research struct {
	log *logger.Logger
}

func NewResearch(log *logger.Logger) *Research {
	return &Research{log: log.With("service", "ResearchAgent")}
}

func (r *Research) Type() domain.AgentType { return domain.AgentResearch }

func (r *Research) Propose(ctx context.Context, store storage.Adapter) ([]*domain.AgentProposal, error) {
	nodes, err := allNodes(ctx, store)
	if err != nil {
		r.log.Warn("research scan aborted on read error", "error", err)
		return nil, nil
	}

	var out []*domain.AgentProposal
	for _, n := range nodes {
		lowConfidence := n.CognitiveState.Confidence < 0.70
		isolated, err := r.isolated(ctx, store, n.ID)
		if err != nil {
			r.log.Warn("research scan aborted on read error", "node_id", n.ID, "error", err)
			return nil, nil
		}
		switch {
		case lowConfidence && isolated:
			out = append(out, gapProposal(n, "low confidence and no incident edges", 0.70))
		case lowConfidence:
			out = append(out, gapProposal(n, fmt.Sprintf("confidence %.2f is below 0.70", n.CognitiveState.Confidence), 0.65))
		case isolated:
			out = append(out, gapProposal(n, "no incident edges connect it to the graph", 0.60))
		}
	}
	return out, nil
}

func (r *Research) isolated(ctx context.Context, store storage.Adapter, nodeID string) (bool, error) {
	from, err := store.EdgesFrom(ctx, nodeID)
	if err != nil {
		return false, err
	}
	if len(from) > 0 {
		return false, nil
	}
	to, err := store.EdgesTo(ctx, nodeID)
	if err != nil {
		return false, err
	}
	return len(to) == 0, nil
}

func gapProposal(n *domain.Node, reason string, confidence float64) *domain.AgentProposal {
	return domain.NewProposal(
		domain.AgentResearch,
		domain.ActionUpdateNode,
		domain.UpdateNodeTarget{NodeID: n.ID},
		fmt.Sprintf("knowledge gap at %q: %s", n.Name, reason),
		confidence,
	)
}
