package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

func (s *Store) CreateEdge(ctx context.Context, e *domain.Edge) (*domain.Edge, error) {
	const op = "memstore.CreateEdge"
	if e == nil {
		return nil, kgerr.New(kgerr.KindValidation, op, "edge is nil")
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[e.ID]; ok {
		return nil, kgerr.Newf(kgerr.KindConflict, op, "edge %s already exists", e.ID)
	}
	if _, ok := s.nodes[e.FromNode]; !ok {
		return nil, kgerr.Newf(kgerr.KindNotFound, op, "from_node %s not found", e.FromNode)
	}
	if _, ok := s.nodes[e.ToNode]; !ok {
		return nil, kgerr.Newf(kgerr.KindNotFound, op, "to_node %s not found", e.ToNode)
	}
	s.edges[e.ID] = e.Clone()
	return e.Clone(), nil
}

func (s *Store) GetEdge(ctx context.Context, id string) (*domain.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[id]
	if !ok {
		return nil, kgerr.Newf(kgerr.KindNotFound, "memstore.GetEdge", "edge %s not found", id)
	}
	return e.Clone(), nil
}

func (s *Store) UpdateEdge(ctx context.Context, id string, patch domain.EdgePatch) (*domain.Edge, error) {
	const op = "memstore.UpdateEdge"
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.edges[id]
	if !ok {
		return nil, kgerr.Newf(kgerr.KindNotFound, op, "edge %s not found", id)
	}
	next := current.Clone()
	patch.Apply(next)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	s.edges[id] = next
	return next.Clone(), nil
}

func (s *Store) DeleteEdge(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[id]; !ok {
		return false, nil
	}
	delete(s.edges, id)
	return true, nil
}

func (s *Store) EdgesFrom(ctx context.Context, nodeID string) ([]*domain.Edge, error) {
	return s.filterEdges(func(e *domain.Edge) bool { return e.FromNode == nodeID }), nil
}

func (s *Store) EdgesTo(ctx context.Context, nodeID string) ([]*domain.Edge, error) {
	return s.filterEdges(func(e *domain.Edge) bool { return e.ToNode == nodeID }), nil
}

func (s *Store) EdgesBetween(ctx context.Context, a, b string) ([]*domain.Edge, error) {
	return s.filterEdges(func(e *domain.Edge) bool {
		return (e.FromNode == a && e.ToNode == b) || (e.FromNode == b && e.ToNode == a)
	}), nil
}

func (s *Store) EdgesByRelation(ctx context.Context, r domain.Relation) ([]*domain.Edge, error) {
	if !domain.IsRelation(r) {
		return nil, kgerr.Newf(kgerr.KindValidation, "memstore.EdgesByRelation", "unknown relation %q", r)
	}
	return s.filterEdges(func(e *domain.Edge) bool { return e.Relation == r }), nil
}

func (s *Store) filterEdges(keep func(*domain.Edge) bool) []*domain.Edge {
	s.mu.RLock()
	var out []*domain.Edge
	for _, e := range s.edges {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	s.mu.RUnlock()
	sortEdges(out)
	return out
}

func sortEdges(edges []*domain.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].Temporal.CreatedAt.Equal(edges[j].Temporal.CreatedAt) {
			return edges[i].Temporal.CreatedAt.Before(edges[j].Temporal.CreatedAt)
		}
		return edges[i].ID < edges[j].ID
	})
}

// FindPath runs a breadth-first search bounded by maxDepth and returns the
// edge sequence of a shortest path. Neighbors are expanded in creation
// order so equal-length ties resolve deterministically. Non-directional
// edges are walked both ways.
func (s *Store) FindPath(ctx context.Context, from, to string, maxDepth int) ([]*domain.Edge, error) {
	const op = "memstore.FindPath"
	if maxDepth < 1 {
		maxDepth = 5
	}
	s.mu.RLock()
	if _, ok := s.nodes[from]; !ok {
		s.mu.RUnlock()
		return nil, kgerr.Newf(kgerr.KindNotFound, op, "from node %s not found", from)
	}
	if _, ok := s.nodes[to]; !ok {
		s.mu.RUnlock()
		return nil, kgerr.Newf(kgerr.KindNotFound, op, "to node %s not found", to)
	}

	adj := make(map[string][]*domain.Edge)
	for _, e := range s.edges {
		adj[e.FromNode] = append(adj[e.FromNode], e.Clone())
		if !e.Dynamics.Directional {
			adj[e.ToNode] = append(adj[e.ToNode], e.Clone())
		}
	}
	s.mu.RUnlock()
	for _, edges := range adj {
		sortEdges(edges)
	}

	if from == to {
		return nil, nil
	}

	type hop struct {
		node string
		via  *domain.Edge
		prev *hop
	}
	visited := map[string]bool{from: true}
	queue := []*hop{{node: from}}
	depth := 0
	for len(queue) > 0 && depth < maxDepth {
		var next []*hop
		for _, h := range queue {
			for _, e := range adj[h.node] {
				neighbor := e.ToNode
				if !e.Dynamics.Directional && neighbor == h.node {
					neighbor = e.FromNode
				}
				if visited[neighbor] {
					continue
				}
				step := &hop{node: neighbor, via: e, prev: h}
				if neighbor == to {
					var path []*domain.Edge
					for cur := step; cur.via != nil; cur = cur.prev {
						path = append(path, cur.via)
					}
					for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
						path[i], path[j] = path[j], path[i]
					}
					return path, nil
				}
				visited[neighbor] = true
				next = append(next, step)
			}
		}
		queue = next
		depth++
	}
	return nil, kgerr.Newf(kgerr.KindNotFound, op, "no path from %s to %s within depth %d", from, to, maxDepth)
}

func (s *Store) BulkCreateEdges(ctx context.Context, edges []*domain.Edge) (*storage.BulkResult, error) {
	res := &storage.BulkResult{}
	for i, e := range edges {
		if _, err := s.CreateEdge(ctx, e); err != nil {
			res.Err = kgerr.Wrap(kgerr.KindOf(err), "memstore.BulkCreateEdges",
				fmt.Sprintf("item %d failed, %d remaining not attempted", i, len(edges)-i-1), err)
			return res, res.Err
		}
		res.CreatedIDs = append(res.CreatedIDs, e.ID)
	}
	return res, nil
}
