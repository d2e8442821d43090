// Package hybrid composes a graph backend and a vector backend behind the
// single adapter contract. Node, edge, chunk and path operations route to
// the graph side; vector operations route to the vector side. The pairing
// is a composition, not a replicated store: cross-backend writes are
// coordinated best-effort and any residue is logged.
package hybrid

import (
	"context"
	"sync"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type Store struct {
	graph  storage.Adapter
	vector storage.Adapter
	log    *logger.Logger

	mu sync.Mutex
	// vectorByNode remembers which embedding a node carried at creation so
	// delete fan-out can reach it.
	vectorByNode map[string]string
}

var _ storage.Adapter = (*Store)(nil)

func New(graph, vector storage.Adapter, log *logger.Logger) (*Store, error) {
	const op = "hybrid.New"
	if graph == nil {
		return nil, kgerr.New(kgerr.KindUnavailable, op, "graph backend required")
	}
	if vector == nil {
		return nil, kgerr.New(kgerr.KindUnavailable, op, "vector backend required")
	}
	return &Store{
		graph:        graph,
		vector:       vector,
		log:          log.With("service", "HybridStore"),
		vectorByNode: make(map[string]string),
	}, nil
}

// CreateNodeWithEmbedding writes the node to the graph side and its
// embedding to the vector side. Either failure aborts the call; a failed
// second write triggers best-effort cleanup of the first, and cleanup
// residue is logged rather than returned.
func (s *Store) CreateNodeWithEmbedding(ctx context.Context, n *domain.Node, v *domain.VectorPayload) (*domain.Node, error) {
	created, err := s.graph.CreateNode(ctx, n)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return created, nil
	}

	if !containsString(v.EntityRefs, created.ID) {
		v = v.Clone()
		v.EntityRefs = append(v.EntityRefs, created.ID)
	}
	stored, err := s.vector.StoreVector(ctx, v)
	if err != nil {
		if _, cleanupErr := s.graph.DeleteNode(ctx, created.ID); cleanupErr != nil {
			s.log.Warn("node residue after failed embedding write",
				"node_id", created.ID, "error", cleanupErr)
		}
		return nil, err
	}

	s.mu.Lock()
	s.vectorByNode[created.ID] = stored.ID
	s.mu.Unlock()
	return created, nil
}

// DeleteNode deletes from the graph first; a failing embedding delete does
// not revive the node and is surfaced as a warning only.
func (s *Store) DeleteNode(ctx context.Context, id string) (bool, error) {
	deleted, err := s.graph.DeleteNode(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}

	s.mu.Lock()
	vectorID, hasVector := s.vectorByNode[id]
	delete(s.vectorByNode, id)
	s.mu.Unlock()
	if hasVector {
		if _, err := s.vector.DeleteVector(ctx, vectorID); err != nil {
			s.log.Warn("embedding residue after node delete",
				"node_id", id, "vector_id", vectorID, "error", err)
		}
	}
	return true, nil
}

// Node operations route to the graph backend.

func (s *Store) CreateNode(ctx context.Context, n *domain.Node) (*domain.Node, error) {
	return s.graph.CreateNode(ctx, n)
}

func (s *Store) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	return s.graph.GetNode(ctx, id)
}

func (s *Store) UpdateNode(ctx context.Context, id string, patch domain.NodePatch) (*domain.Node, error) {
	return s.graph.UpdateNode(ctx, id, patch)
}

func (s *Store) ListNodes(ctx context.Context, page, limit int) (*storage.NodePage, error) {
	return s.graph.ListNodes(ctx, page, limit)
}

func (s *Store) SearchNodesByText(ctx context.Context, query string, limit int) ([]*domain.Node, error) {
	return s.graph.SearchNodesByText(ctx, query, limit)
}

func (s *Store) NodesByType(ctx context.Context, kind domain.NodeKind, limit int) ([]*domain.Node, error) {
	return s.graph.NodesByType(ctx, kind, limit)
}

func (s *Store) BulkCreateNodes(ctx context.Context, nodes []*domain.Node) (*storage.BulkResult, error) {
	return s.graph.BulkCreateNodes(ctx, nodes)
}

func (s *Store) CreateEdge(ctx context.Context, e *domain.Edge) (*domain.Edge, error) {
	return s.graph.CreateEdge(ctx, e)
}

func (s *Store) GetEdge(ctx context.Context, id string) (*domain.Edge, error) {
	return s.graph.GetEdge(ctx, id)
}

func (s *Store) UpdateEdge(ctx context.Context, id string, patch domain.EdgePatch) (*domain.Edge, error) {
	return s.graph.UpdateEdge(ctx, id, patch)
}

func (s *Store) DeleteEdge(ctx context.Context, id string) (bool, error) {
	return s.graph.DeleteEdge(ctx, id)
}

func (s *Store) EdgesFrom(ctx context.Context, nodeID string) ([]*domain.Edge, error) {
	return s.graph.EdgesFrom(ctx, nodeID)
}

func (s *Store) EdgesTo(ctx context.Context, nodeID string) ([]*domain.Edge, error) {
	return s.graph.EdgesTo(ctx, nodeID)
}

func (s *Store) EdgesBetween(ctx context.Context, a, b string) ([]*domain.Edge, error) {
	return s.graph.EdgesBetween(ctx, a, b)
}

func (s *Store) EdgesByRelation(ctx context.Context, r domain.Relation) ([]*domain.Edge, error) {
	return s.graph.EdgesByRelation(ctx, r)
}

func (s *Store) FindPath(ctx context.Context, from, to string, maxDepth int) ([]*domain.Edge, error) {
	return s.graph.FindPath(ctx, from, to, maxDepth)
}

func (s *Store) BulkCreateEdges(ctx context.Context, edges []*domain.Edge) (*storage.BulkResult, error) {
	return s.graph.BulkCreateEdges(ctx, edges)
}

// Chunk operations route to the graph backend.

func (s *Store) StoreChunk(ctx context.Context, c *domain.DocumentChunk) (*domain.DocumentChunk, error) {
	return s.graph.StoreChunk(ctx, c)
}

func (s *Store) ChunksBySource(ctx context.Context, sourceID string) ([]*domain.DocumentChunk, error) {
	return s.graph.ChunksBySource(ctx, sourceID)
}

func (s *Store) ChunksByConcept(ctx context.Context, concept string) ([]*domain.DocumentChunk, error) {
	return s.graph.ChunksByConcept(ctx, concept)
}

func (s *Store) DeleteChunksBySource(ctx context.Context, sourceID string) (int, error) {
	return s.graph.DeleteChunksBySource(ctx, sourceID)
}

// Vector operations route to the vector backend.

func (s *Store) StoreVector(ctx context.Context, v *domain.VectorPayload) (*domain.VectorPayload, error) {
	return s.vector.StoreVector(ctx, v)
}

func (s *Store) GetVector(ctx context.Context, id string) (*domain.VectorPayload, error) {
	return s.vector.GetVector(ctx, id)
}

func (s *Store) SearchVectors(ctx context.Context, embedding []float64, k int, filter storage.VectorFilter) ([]storage.SearchResult, error) {
	return s.vector.SearchVectors(ctx, embedding, k, filter)
}

func (s *Store) DeleteVector(ctx context.Context, id string) (bool, error) {
	return s.vector.DeleteVector(ctx, id)
}

func (s *Store) UpdateVectorDecay(ctx context.Context, id string, score float64) error {
	return s.vector.UpdateVectorDecay(ctx, id, score)
}

// Transactions cover the graph side only: the two backends have no common
// transaction coordinator, so vector writes inside a transaction window
// stay best-effort.
func (s *Store) BeginTx(ctx context.Context) error    { return s.graph.BeginTx(ctx) }
func (s *Store) CommitTx(ctx context.Context) error   { return s.graph.CommitTx(ctx) }
func (s *Store) RollbackTx(ctx context.Context) error { return s.graph.RollbackTx(ctx) }

func (s *Store) Initialize(ctx context.Context) error {
	if err := s.graph.Initialize(ctx); err != nil {
		return err
	}
	return s.vector.Initialize(ctx)
}

// HealthCheck is the conjunction of both backends.
func (s *Store) HealthCheck(ctx context.Context) bool {
	return s.graph.HealthCheck(ctx) && s.vector.HealthCheck(ctx)
}

func (s *Store) Disconnect(ctx context.Context) error {
	err := s.graph.Disconnect(ctx)
	if verr := s.vector.Disconnect(ctx); verr != nil && err == nil {
		err = verr
	}
	return err
}

func (s *Store) Type() string { return "hybrid" }

func containsString(in []string, want string) bool {
	for _, s := range in {
		if s == want {
			return true
		}
	}
	return false
}
