package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

func (s *Store) CreateNode(ctx context.Context, n *domain.Node) (*domain.Node, error) {
	const op = "memstore.CreateNode"
	if n == nil {
		return nil, kgerr.New(kgerr.KindValidation, op, "node is nil")
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[n.ID]; ok {
		return nil, kgerr.Newf(kgerr.KindConflict, op, "node %s already exists", n.ID)
	}
	s.nodes[n.ID] = n.Clone()
	return n.Clone(), nil
}

func (s *Store) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, kgerr.Newf(kgerr.KindNotFound, "memstore.GetNode", "node %s not found", id)
	}
	return n.Clone(), nil
}

func (s *Store) UpdateNode(ctx context.Context, id string, patch domain.NodePatch) (*domain.Node, error) {
	const op = "memstore.UpdateNode"
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.nodes[id]
	if !ok {
		return nil, kgerr.Newf(kgerr.KindNotFound, op, "node %s not found", id)
	}
	next := current.Clone()
	patch.Apply(next)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	s.nodes[id] = next
	return next.Clone(), nil
}

// DeleteNode removes the node and every incident edge. Returns false when
// the id is unknown.
func (s *Store) DeleteNode(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return false, nil
	}
	delete(s.nodes, id)
	for eid, e := range s.edges {
		if e.Touches(id) {
			delete(s.edges, eid)
		}
	}
	return true, nil
}

func (s *Store) ListNodes(ctx context.Context, page, limit int) (*storage.NodePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	s.mu.RLock()
	all := make([]*domain.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		all = append(all, n.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return &storage.NodePage{
		Items:   all[start:end],
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasMore: end < total,
	}, nil
}

// SearchNodesByText is a case-insensitive substring scan over name,
// description and canonical_name. Exact name matches sort first,
// description-only matches last.
func (s *Store) SearchNodesByText(ctx context.Context, query string, limit int) ([]*domain.Node, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 20
	}

	type ranked struct {
		node *domain.Node
		rank int
	}
	s.mu.RLock()
	var hits []ranked
	for _, n := range s.nodes {
		name := strings.ToLower(n.Name)
		canonical := strings.ToLower(n.CanonicalName)
		desc := strings.ToLower(n.Description)
		switch {
		case name == q:
			hits = append(hits, ranked{n.Clone(), 0})
		case strings.Contains(name, q) || strings.Contains(canonical, q):
			hits = append(hits, ranked{n.Clone(), 1})
		case strings.Contains(desc, q):
			hits = append(hits, ranked{n.Clone(), 2})
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].node.Name < hits[j].node.Name
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]*domain.Node, len(hits))
	for i, h := range hits {
		out[i] = h.node
	}
	return out, nil
}

func (s *Store) NodesByType(ctx context.Context, kind domain.NodeKind, limit int) ([]*domain.Node, error) {
	if !domain.IsNodeKind(kind) {
		return nil, kgerr.Newf(kgerr.KindValidation, "memstore.NodesByType", "unknown node type %q", kind)
	}
	if limit < 1 {
		limit = 20
	}
	s.mu.RLock()
	var out []*domain.Node
	for _, n := range s.nodes {
		if n.Kind == kind {
			out = append(out, n.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// BulkCreateNodes inserts until the first failure and reports the prefix of
// ids created so far; earlier inserts are not rolled back unless the caller
// opened a transaction.
func (s *Store) BulkCreateNodes(ctx context.Context, nodes []*domain.Node) (*storage.BulkResult, error) {
	res := &storage.BulkResult{}
	for i, n := range nodes {
		if _, err := s.CreateNode(ctx, n); err != nil {
			res.Err = kgerr.Wrap(kgerr.KindOf(err), "memstore.BulkCreateNodes",
				fmt.Sprintf("item %d failed, %d remaining not attempted", i, len(nodes)-i-1), err)
			return res, res.Err
		}
		res.CreatedIDs = append(res.CreatedIDs, n.ID)
	}
	return res, nil
}
