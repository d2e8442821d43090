// Package query answers semantic questions over the graph: ranked concept
// lookup, node comparison and prerequisite traversal.
package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

// Range is a closed numeric interval; zero Max means unbounded above only
// when Min is also zero.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r *Range) contains(v float64) bool {
	if r == nil {
		return true
	}
	return v >= r.Min && v <= r.Max
}

type Filters struct {
	Kinds            []domain.NodeKind   `json:"kinds,omitempty"`
	DifficultyRange  *Range              `json:"difficulty_range,omitempty"`
	AbstractionRange *Range              `json:"abstraction_range,omitempty"`
	SourceTiers      []domain.SourceTier `json:"source_tiers,omitempty"`
}

type Request struct {
	Query   string   `json:"query"`
	Limit   int      `json:"limit,omitempty"`
	Filters *Filters `json:"filters,omitempty"`
	Context string   `json:"context,omitempty"`
}

type Response struct {
	Results     []*domain.Node `json:"results"`
	Explanation string         `json:"explanation"`
}

type Service struct {
	store storage.Adapter
	log   *logger.Logger
}

func NewService(store storage.Adapter, log *logger.Logger) *Service {
	return &Service{store: store, log: log.With("service", "QueryService")}
}

// Semantic ranks text-search candidates by (exact name match, confidence,
// strength) descending and renders a short explanation.
func (s *Service) Semantic(ctx context.Context, req Request) (*Response, error) {
	const op = "query.Service.Semantic"
	if strings.TrimSpace(req.Query) == "" {
		return nil, kgerr.New(kgerr.KindValidation, op, "query is required")
	}
	limit := req.Limit
	if limit < 1 {
		limit = 10
	}
	candidates, err := s.store.SearchNodesByText(ctx, req.Query, limit)
	if err != nil {
		return nil, err
	}

	filtered := candidates[:0]
	for _, n := range candidates {
		if matchesFilters(n, req.Filters) {
			filtered = append(filtered, n)
		}
	}
	if req.Filters != nil && len(req.Filters.SourceTiers) > 0 {
		filtered, err = s.filterBySourceTier(ctx, filtered, req.Filters.SourceTiers)
		if err != nil {
			return nil, err
		}
	}

	q := strings.ToLower(strings.TrimSpace(req.Query))
	sort.SliceStable(filtered, func(i, j int) bool {
		iExact := strings.ToLower(filtered[i].Name) == q
		jExact := strings.ToLower(filtered[j].Name) == q
		if iExact != jExact {
			return iExact
		}
		if filtered[i].CognitiveState.Confidence != filtered[j].CognitiveState.Confidence {
			return filtered[i].CognitiveState.Confidence > filtered[j].CognitiveState.Confidence
		}
		return filtered[i].CognitiveState.Strength > filtered[j].CognitiveState.Strength
	})

	return &Response{Results: filtered, Explanation: explain(req.Query, filtered)}, nil
}

func matchesFilters(n *domain.Node, f *Filters) bool {
	if f == nil {
		return true
	}
	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if n.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.DifficultyRange.contains(n.Level.Difficulty) {
		return false
	}
	if !f.AbstractionRange.contains(n.Level.Abstraction) {
		return false
	}
	return true
}

// filterBySourceTier keeps nodes whose provenance reaches one of the wanted
// tiers. Tiers live on vectors, so each grounding source ref is resolved
// through its chunks to their embedding payloads; a node with no grounding
// at the requested tiers is dropped.
func (s *Service) filterBySourceTier(ctx context.Context, nodes []*domain.Node, tiers []domain.SourceTier) ([]*domain.Node, error) {
	want := make(map[domain.SourceTier]bool, len(tiers))
	for _, t := range tiers {
		want[t] = true
	}
	out := nodes[:0]
	for _, n := range nodes {
		ok, err := s.nodeReachesTier(ctx, n, want)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Service) nodeReachesTier(ctx context.Context, n *domain.Node, want map[domain.SourceTier]bool) (bool, error) {
	for _, ref := range n.Grounding.SourceRefs {
		chunks, err := s.store.ChunksBySource(ctx, ref)
		if err != nil {
			if kgerr.KindOf(err) == kgerr.KindNotSupported {
				continue
			}
			return false, err
		}
		for _, c := range chunks {
			if c.EmbeddingID == "" {
				continue
			}
			v, err := s.store.GetVector(ctx, c.EmbeddingID)
			if err != nil {
				kind := kgerr.KindOf(err)
				if kind == kgerr.KindNotFound || kind == kgerr.KindNotSupported {
					continue
				}
				return false, err
			}
			if want[v.SourceTier] {
				return true, nil
			}
		}
	}
	return false, nil
}

func explain(query string, results []*domain.Node) string {
	if len(results) == 0 {
		return fmt.Sprintf("No concepts matching %q were found.", query)
	}
	top := results[0]
	out := fmt.Sprintf("%s: %s", top.Name, top.Description)
	var related []string
	for _, n := range results[1:] {
		related = append(related, n.Name)
		if len(related) == 2 {
			break
		}
	}
	if len(related) > 0 {
		out += fmt.Sprintf(" Related: %s.", strings.Join(related, ", "))
	}
	return out
}

// Comparison lists similarities and differences between two nodes.
type Comparison struct {
	NodeA        *domain.Node `json:"node_a"`
	NodeB        *domain.Node `json:"node_b"`
	Similarities []string     `json:"similarities"`
	Differences  []string     `json:"differences"`
}

func (s *Service) Compare(ctx context.Context, idA, idB string) (*Comparison, error) {
	a, err := s.store.GetNode(ctx, idA)
	if err != nil {
		return nil, err
	}
	b, err := s.store.GetNode(ctx, idB)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{NodeA: a, NodeB: b}
	if a.Kind == b.Kind {
		cmp.Similarities = append(cmp.Similarities, fmt.Sprintf("both are %s nodes", a.Kind))
	}
	if math.Abs(a.Level.Difficulty-b.Level.Difficulty) < 0.2 {
		cmp.Similarities = append(cmp.Similarities, "comparable difficulty")
	}
	if math.Abs(a.Level.Abstraction-b.Level.Abstraction) < 0.2 {
		cmp.Similarities = append(cmp.Similarities, "comparable abstraction level")
	}
	if a.Domain != "" && a.Domain == b.Domain {
		cmp.Similarities = append(cmp.Similarities, fmt.Sprintf("both belong to %s", a.Domain))
	}

	switch {
	case a.CognitiveState.Confidence > b.CognitiveState.Confidence:
		cmp.Differences = append(cmp.Differences, fmt.Sprintf("%s is held with higher confidence", a.Name))
	case b.CognitiveState.Confidence > a.CognitiveState.Confidence:
		cmp.Differences = append(cmp.Differences, fmt.Sprintf("%s is held with higher confidence", b.Name))
	}
	if a.RealWorld.UsedInProduction != b.RealWorld.UsedInProduction {
		used := a
		if b.RealWorld.UsedInProduction {
			used = b
		}
		cmp.Differences = append(cmp.Differences, fmt.Sprintf("%s is used in production", used.Name))
	}
	if math.Abs(a.Level.Volatility-b.Level.Volatility) > 0.3 {
		cmp.Differences = append(cmp.Differences, "their volatility differs substantially")
	}
	return cmp, nil
}

var prerequisiteRelations = map[domain.Relation]bool{
	domain.RelRequires:             true,
	domain.RelDependsOn:            true,
	domain.RelRequiresForDebugging: true,
}

// Prerequisites walks incoming prerequisite edges up to depth levels and
// returns the distinct source nodes.
func (s *Service) Prerequisites(ctx context.Context, nodeID string, depth int) ([]*domain.Node, error) {
	if depth < 1 {
		depth = 2
	}
	if _, err := s.store.GetNode(ctx, nodeID); err != nil {
		return nil, err
	}

	seen := map[string]bool{nodeID: true}
	frontier := []string{nodeID}
	var out []*domain.Node
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []string
		for _, id := range frontier {
			incoming, err := s.store.EdgesTo(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, e := range incoming {
				if !prerequisiteRelations[e.Relation] || seen[e.FromNode] {
					continue
				}
				seen[e.FromNode] = true
				n, err := s.store.GetNode(ctx, e.FromNode)
				if err != nil {
					return nil, err
				}
				out = append(out, n)
				next = append(next, e.FromNode)
			}
		}
		frontier = next
	}
	return out, nil
}
