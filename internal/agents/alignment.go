package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

const DefaultAlignmentThreshold = 0.85

// Alignment finds near-duplicate nodes by name similarity and proposes
// merging each pair.
type Alignment struct {
	threshold float64
	log       *logger.Logger
}

func NewAlignment(threshold float64, log *logger.Logger) *Alignment {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultAlignmentThreshold
	}
	return &Alignment{threshold: threshold, log: log.With("service", "AlignmentAgent")}
}

func (a *Alignment) Type() domain.AgentType { return domain.AgentAlignment }

func (a *Alignment) Propose(ctx context.Context, store storage.Adapter) ([]*domain.AgentProposal, error) {
	nodes, err := allNodes(ctx, store)
	if err != nil {
		a.log.Warn("alignment scan aborted on read error", "error", err)
		return nil, nil
	}

	var out []*domain.AgentProposal
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			sim := NameSimilarity(nodes[i].Name, nodes[j].Name)
			if sim < a.threshold {
				continue
			}
			out = append(out, domain.NewProposal(
				domain.AgentAlignment,
				domain.ActionMergeNodes,
				domain.MergeNodesTarget{NodeA: nodes[i].ID, NodeB: nodes[j].ID},
				fmt.Sprintf("names %q and %q are %.0f%% similar", nodes[i].Name, nodes[j].Name, sim*100),
				sim,
			))
		}
	}
	return out, nil
}

// NameSimilarity is the Levenshtein ratio: 1 - distance/maxLen, compared
// case-insensitively. Two empty names count as identical.
func NameSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
