package agents

import (
	"context"
	"fmt"
	"sort"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

// Curriculum plans a learning path: walking prerequisite edges backwards
// from a target node, it lists everything the learner does not already
// know, easiest first.
type Curriculum struct {
	maxDepth int
	log      *logger.Logger
}

func NewCurriculum(maxDepth int, log *logger.Logger) *Curriculum {
	if maxDepth < 1 {
		maxDepth = 10
	}
	return &Curriculum{maxDepth: maxDepth, log: log.With("service", "CurriculumAgent")}
}

func (c *Curriculum) Type() domain.AgentType { return domain.AgentCurriculum }

// Plan is the curriculum output: prerequisites ascending by difficulty plus
// the informational proposals describing them.
type Plan struct {
	Target        *domain.Node            `json:"target"`
	Prerequisites []*domain.Node          `json:"prerequisites"`
	Proposals     []*domain.AgentProposal `json:"proposals"`
}

var curriculumRelations = map[domain.Relation]bool{
	domain.RelRequires:  true,
	domain.RelDependsOn: true,
}

// PlanFor BFS-walks incoming requires/depends_on edges from the target and
// collects every prerequisite outside the known set.
func (c *Curriculum) PlanFor(ctx context.Context, store storage.Adapter, targetID string, known map[string]bool) (*Plan, error) {
	target, err := store.GetNode(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if known == nil {
		known = map[string]bool{}
	}

	seen := map[string]bool{targetID: true}
	frontier := []string{targetID}
	var prereqs []*domain.Node
	for depth := 0; depth < c.maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			incoming, err := store.EdgesTo(ctx, id)
			if err != nil {
				c.log.Warn("curriculum walk aborted on read error", "error", err)
				return &Plan{Target: target}, nil
			}
			for _, e := range incoming {
				if !curriculumRelations[e.Relation] || seen[e.FromNode] {
					continue
				}
				seen[e.FromNode] = true
				next = append(next, e.FromNode)
				if known[e.FromNode] {
					continue
				}
				n, err := store.GetNode(ctx, e.FromNode)
				if err != nil {
					c.log.Warn("curriculum walk aborted on read error", "error", err)
					return &Plan{Target: target}, nil
				}
				prereqs = append(prereqs, n)
			}
		}
		frontier = next
	}

	sort.SliceStable(prereqs, func(i, j int) bool {
		return prereqs[i].Level.Difficulty < prereqs[j].Level.Difficulty
	})

	proposals := make([]*domain.AgentProposal, 0, len(prereqs))
	for i, p := range prereqs {
		proposals = append(proposals, domain.NewProposal(
			domain.AgentCurriculum,
			domain.ActionUpdateNode,
			domain.UpdateNodeTarget{NodeID: p.ID},
			fmt.Sprintf("prerequisite %d of %d for learning %q", i+1, len(prereqs), target.Name),
			0.5,
		))
	}
	return &Plan{Target: target, Prerequisites: prereqs, Proposals: proposals}, nil
}
