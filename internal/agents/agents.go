// Package agents holds the five proposal-producing agents. Agents read
// storage snapshots and emit proposals; they never write to storage. A
// storage read error yields an empty proposal list, not a failure, so one
// broken read cannot abort a full workflow.
package agents

import (
	"context"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

// GraphAgent is the shape shared by the agents that scan the whole graph
// (alignment, contradiction, research). Ingestion and curriculum take extra
// inputs and expose their own entry points.
type GraphAgent interface {
	Type() domain.AgentType
	Propose(ctx context.Context, store storage.Adapter) ([]*domain.AgentProposal, error)
}

// allNodes pages through the full node set.
func allNodes(ctx context.Context, store storage.Adapter) ([]*domain.Node, error) {
	var out []*domain.Node
	for page := 1; ; page++ {
		nodes, err := store.ListNodes(ctx, page, 200)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes.Items...)
		if !nodes.HasMore {
			return out, nil
		}
	}
}
