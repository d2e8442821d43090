// Package qdrantstore is the vector persistence backend. Each logical
// collection maps to one Qdrant collection whose dimension is fixed by the
// first vector stored in it. Graph and chunk operations belong to the graph
// backend and report NotSupported here.
package qdrantstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/envutil"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/platform/qdranthttp"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type Config struct {
	// CollectionPrefix namespaces the physical Qdrant collections.
	CollectionPrefix string
	// DefaultCollection is ensured during Initialize with DefaultDim.
	DefaultCollection string
	DefaultDim        int
	SimilarityFloor   float64
}

func ResolveConfigFromEnv() Config {
	return Config{
		CollectionPrefix:  envutil.Str("QDRANT_COLLECTION", "mnemograph"),
		DefaultCollection: envutil.Str("QDRANT_DEFAULT_COLLECTION", "chunks"),
		DefaultDim:        envutil.Int("QDRANT_VECTOR_DIM", 768),
		SimilarityFloor:   envutil.Float("QDRANT_SIMILARITY_FLOOR", storage.DefaultSimilarityFloor),
	}
}

type Store struct {
	client *qdranthttp.Client
	log    *logger.Logger
	cfg    Config

	mu sync.Mutex
	// dims pins the dimension of every logical collection seen so far.
	dims map[string]int
	// home caches which logical collection a vector id lives in.
	home map[string]string
}

var _ storage.Adapter = (*Store)(nil)

func New(client *qdranthttp.Client, cfg Config, log *logger.Logger) (*Store, error) {
	if client == nil {
		return nil, kgerr.New(kgerr.KindUnavailable, "qdrantstore.New", "qdrant client not connected")
	}
	if cfg.CollectionPrefix == "" {
		cfg.CollectionPrefix = "mnemograph"
	}
	if cfg.DefaultCollection == "" {
		cfg.DefaultCollection = "chunks"
	}
	if cfg.DefaultDim <= 0 {
		cfg.DefaultDim = 768
	}
	if cfg.SimilarityFloor <= 0 {
		cfg.SimilarityFloor = storage.DefaultSimilarityFloor
	}
	return &Store{
		client: client,
		log:    log.With("service", "QdrantStore"),
		cfg:    cfg,
		dims:   make(map[string]int),
		home:   make(map[string]string),
	}, nil
}

// Initialize verifies the server, ensures the default collection and loads
// the dimensions of every collection already under this prefix.
func (s *Store) Initialize(ctx context.Context) error {
	const op = "qdrantstore.Initialize"
	if err := s.client.Ready(ctx); err != nil {
		return wrapQdrant(op, err)
	}
	if err := s.client.EnsureCollection(ctx, s.physical(s.cfg.DefaultCollection), s.cfg.DefaultDim); err != nil {
		return wrapQdrant(op, err)
	}

	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return wrapQdrant(op, err)
	}
	prefix := s.cfg.CollectionPrefix + "_"
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dims[s.cfg.DefaultCollection] = s.cfg.DefaultDim
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		logical := strings.TrimPrefix(name, prefix)
		dim, err := s.client.CollectionDim(ctx, name)
		if err != nil {
			s.log.Warn("collection dimension probe failed", "collection", name, "error", err)
			continue
		}
		if dim > 0 {
			s.dims[logical] = dim
		}
	}
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) bool {
	return s.client.Ready(ctx) == nil
}

func (s *Store) Disconnect(ctx context.Context) error { return nil }

func (s *Store) Type() string { return "qdrant" }

// Qdrant has no multi-point transaction, so the coarse markers are refused
// rather than silently accepted.
func (s *Store) BeginTx(ctx context.Context) error    { return txNotSupported("qdrantstore.BeginTx") }
func (s *Store) CommitTx(ctx context.Context) error   { return txNotSupported("qdrantstore.CommitTx") }
func (s *Store) RollbackTx(ctx context.Context) error { return txNotSupported("qdrantstore.RollbackTx") }

func txNotSupported(op string) error {
	return kgerr.New(kgerr.KindNotSupported, op, "qdrant cannot express multi-entity transactions")
}

func (s *Store) physical(collection string) string {
	return s.cfg.CollectionPrefix + "_" + collection
}

func (s *Store) knownCollections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.dims))
	for logical := range s.dims {
		out = append(out, logical)
	}
	return out
}

func wrapQdrant(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *qdranthttp.OperationError
	if errors.As(err, &typed) {
		return kgerr.Wrap(typed.Kind(), op, "qdrant backend", err)
	}
	var cfgErr *qdranthttp.ConfigError
	if errors.As(err, &cfgErr) {
		return kgerr.Wrap(kgerr.KindValidation, op, "qdrant config", err)
	}
	return kgerr.Wrap(kgerr.KindUnavailable, op, "qdrant backend", err)
}

// Graph-side operations are not servable from a vector index.

func graphNotSupported(op string) error {
	return kgerr.New(kgerr.KindNotSupported, op, "graph operations require the graph or hybrid backend")
}

func (s *Store) CreateNode(ctx context.Context, n *domain.Node) (*domain.Node, error) {
	return nil, graphNotSupported("qdrantstore.CreateNode")
}

func (s *Store) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	return nil, graphNotSupported("qdrantstore.GetNode")
}

func (s *Store) UpdateNode(ctx context.Context, id string, patch domain.NodePatch) (*domain.Node, error) {
	return nil, graphNotSupported("qdrantstore.UpdateNode")
}

func (s *Store) DeleteNode(ctx context.Context, id string) (bool, error) {
	return false, graphNotSupported("qdrantstore.DeleteNode")
}

func (s *Store) ListNodes(ctx context.Context, page, limit int) (*storage.NodePage, error) {
	return nil, graphNotSupported("qdrantstore.ListNodes")
}

func (s *Store) SearchNodesByText(ctx context.Context, query string, limit int) ([]*domain.Node, error) {
	return nil, graphNotSupported("qdrantstore.SearchNodesByText")
}

func (s *Store) NodesByType(ctx context.Context, kind domain.NodeKind, limit int) ([]*domain.Node, error) {
	return nil, graphNotSupported("qdrantstore.NodesByType")
}

func (s *Store) BulkCreateNodes(ctx context.Context, nodes []*domain.Node) (*storage.BulkResult, error) {
	return nil, graphNotSupported("qdrantstore.BulkCreateNodes")
}

func (s *Store) CreateEdge(ctx context.Context, e *domain.Edge) (*domain.Edge, error) {
	return nil, graphNotSupported("qdrantstore.CreateEdge")
}

func (s *Store) GetEdge(ctx context.Context, id string) (*domain.Edge, error) {
	return nil, graphNotSupported("qdrantstore.GetEdge")
}

func (s *Store) UpdateEdge(ctx context.Context, id string, patch domain.EdgePatch) (*domain.Edge, error) {
	return nil, graphNotSupported("qdrantstore.UpdateEdge")
}

func (s *Store) DeleteEdge(ctx context.Context, id string) (bool, error) {
	return false, graphNotSupported("qdrantstore.DeleteEdge")
}

func (s *Store) EdgesFrom(ctx context.Context, nodeID string) ([]*domain.Edge, error) {
	return nil, graphNotSupported("qdrantstore.EdgesFrom")
}

func (s *Store) EdgesTo(ctx context.Context, nodeID string) ([]*domain.Edge, error) {
	return nil, graphNotSupported("qdrantstore.EdgesTo")
}

func (s *Store) EdgesBetween(ctx context.Context, a, b string) ([]*domain.Edge, error) {
	return nil, graphNotSupported("qdrantstore.EdgesBetween")
}

func (s *Store) EdgesByRelation(ctx context.Context, r domain.Relation) ([]*domain.Edge, error) {
	return nil, graphNotSupported("qdrantstore.EdgesByRelation")
}

func (s *Store) FindPath(ctx context.Context, from, to string, maxDepth int) ([]*domain.Edge, error) {
	return nil, graphNotSupported("qdrantstore.FindPath")
}

func (s *Store) BulkCreateEdges(ctx context.Context, edges []*domain.Edge) (*storage.BulkResult, error) {
	return nil, graphNotSupported("qdrantstore.BulkCreateEdges")
}

func (s *Store) StoreChunk(ctx context.Context, c *domain.DocumentChunk) (*domain.DocumentChunk, error) {
	return nil, graphNotSupported("qdrantstore.StoreChunk")
}

func (s *Store) ChunksBySource(ctx context.Context, sourceID string) ([]*domain.DocumentChunk, error) {
	return nil, graphNotSupported("qdrantstore.ChunksBySource")
}

func (s *Store) ChunksByConcept(ctx context.Context, concept string) ([]*domain.DocumentChunk, error) {
	return nil, graphNotSupported("qdrantstore.ChunksByConcept")
}

func (s *Store) DeleteChunksBySource(ctx context.Context, sourceID string) (int, error) {
	return 0, graphNotSupported("qdrantstore.DeleteChunksBySource")
}
