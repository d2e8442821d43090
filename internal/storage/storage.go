package storage

import (
	"context"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
)

// NodePage is one page of a created_at-descending node listing.
type NodePage struct {
	Items   []*domain.Node `json:"items"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	HasMore bool           `json:"has_more"`
}

// VectorFilter restricts vector search by payload fields. Values are either
// a scalar (equality) or a []string / []any (set membership). Supported keys:
// entity_refs, source_tier, abstraction_level, embedding_type, collection.
type VectorFilter map[string]any

// SearchResult pairs a stored vector with its cosine similarity to the query.
type SearchResult struct {
	Vector     *domain.VectorPayload `json:"vector"`
	Similarity float64               `json:"similarity"`
}

// DefaultSimilarityFloor is the minimum cosine similarity a vector search
// result must reach to be returned.
const DefaultSimilarityFloor = 0.3

// BulkResult reports a bulk insert: the ids inserted before the first group
// of failures, in input order, plus an aggregated error when any item failed.
type BulkResult struct {
	CreatedIDs []string `json:"created_ids"`
	Err        error    `json:"-"`
}

// Adapter is the single persistence contract. Implementations: in-process
// maps, Neo4j, Qdrant, and a hybrid composer routing between the last two.
// All methods are safe for concurrent use; writes to one entity id are
// serialized in arrival order.
type Adapter interface {
	// Node operations.
	CreateNode(ctx context.Context, n *domain.Node) (*domain.Node, error)
	GetNode(ctx context.Context, id string) (*domain.Node, error)
	UpdateNode(ctx context.Context, id string, patch domain.NodePatch) (*domain.Node, error)
	DeleteNode(ctx context.Context, id string) (bool, error)
	ListNodes(ctx context.Context, page, limit int) (*NodePage, error)
	SearchNodesByText(ctx context.Context, query string, limit int) ([]*domain.Node, error)
	NodesByType(ctx context.Context, kind domain.NodeKind, limit int) ([]*domain.Node, error)
	BulkCreateNodes(ctx context.Context, nodes []*domain.Node) (*BulkResult, error)

	// Edge operations.
	CreateEdge(ctx context.Context, e *domain.Edge) (*domain.Edge, error)
	GetEdge(ctx context.Context, id string) (*domain.Edge, error)
	UpdateEdge(ctx context.Context, id string, patch domain.EdgePatch) (*domain.Edge, error)
	DeleteEdge(ctx context.Context, id string) (bool, error)
	EdgesFrom(ctx context.Context, nodeID string) ([]*domain.Edge, error)
	EdgesTo(ctx context.Context, nodeID string) ([]*domain.Edge, error)
	EdgesBetween(ctx context.Context, a, b string) ([]*domain.Edge, error)
	EdgesByRelation(ctx context.Context, r domain.Relation) ([]*domain.Edge, error)
	FindPath(ctx context.Context, from, to string, maxDepth int) ([]*domain.Edge, error)
	BulkCreateEdges(ctx context.Context, edges []*domain.Edge) (*BulkResult, error)

	// Vector operations.
	StoreVector(ctx context.Context, v *domain.VectorPayload) (*domain.VectorPayload, error)
	GetVector(ctx context.Context, id string) (*domain.VectorPayload, error)
	SearchVectors(ctx context.Context, embedding []float64, k int, filter VectorFilter) ([]SearchResult, error)
	DeleteVector(ctx context.Context, id string) (bool, error)
	UpdateVectorDecay(ctx context.Context, id string, score float64) error

	// Chunk operations.
	StoreChunk(ctx context.Context, c *domain.DocumentChunk) (*domain.DocumentChunk, error)
	ChunksBySource(ctx context.Context, sourceID string) ([]*domain.DocumentChunk, error)
	ChunksByConcept(ctx context.Context, concept string) ([]*domain.DocumentChunk, error)
	DeleteChunksBySource(ctx context.Context, sourceID string) (int, error)

	// Transactions. Backends without isolation document begin/commit as
	// no-ops; backends that cannot express multi-entity atomicity at all
	// return NotSupported.
	BeginTx(ctx context.Context) error
	CommitTx(ctx context.Context) error
	RollbackTx(ctx context.Context) error

	// Lifecycle.
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) bool
	Disconnect(ctx context.Context) error
	Type() string
}
