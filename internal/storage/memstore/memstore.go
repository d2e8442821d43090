package memstore

import (
	"context"
	"sync"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

// Store is the in-process reference backend. Four maps guarded by one
// RWMutex; every returned entity is a deep copy so callers never alias
// internal state.
type Store struct {
	mu      sync.RWMutex
	nodes   map[string]*domain.Node
	edges   map[string]*domain.Edge
	vectors map[string]*domain.VectorPayload
	chunks  map[string]*domain.DocumentChunk

	// collection name -> embedding dimension, fixed by first insert.
	collectionDims map[string]int

	// snapshot taken by BeginTx, nil when no transaction is open.
	snap *snapshot

	floor float64
}

type snapshot struct {
	nodes          map[string]*domain.Node
	edges          map[string]*domain.Edge
	vectors        map[string]*domain.VectorPayload
	chunks         map[string]*domain.DocumentChunk
	collectionDims map[string]int
}

// Option tweaks store construction.
type Option func(*Store)

// WithSimilarityFloor overrides the minimum similarity returned by
// SearchVectors.
func WithSimilarityFloor(f float64) Option {
	return func(s *Store) { s.floor = f }
}

func New(opts ...Option) *Store {
	s := &Store{
		nodes:          make(map[string]*domain.Node),
		edges:          make(map[string]*domain.Edge),
		vectors:        make(map[string]*domain.VectorPayload),
		chunks:         make(map[string]*domain.DocumentChunk),
		collectionDims: make(map[string]int),
		floor:          storage.DefaultSimilarityFloor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ storage.Adapter = (*Store)(nil)

func (s *Store) Type() string { return "memory" }

func (s *Store) Initialize(ctx context.Context) error { return nil }

func (s *Store) HealthCheck(ctx context.Context) bool { return true }

func (s *Store) Disconnect(ctx context.Context) error { return nil }

// BeginTx snapshots all four maps. Commit discards the snapshot; rollback
// restores it. Only one transaction may be open at a time.
func (s *Store) BeginTx(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil {
		return kgerr.New(kgerr.KindConflict, "memstore.BeginTx", "transaction already open")
	}
	s.snap = &snapshot{
		nodes:          cloneNodeMap(s.nodes),
		edges:          cloneEdgeMap(s.edges),
		vectors:        cloneVectorMap(s.vectors),
		chunks:         cloneChunkMap(s.chunks),
		collectionDims: cloneDims(s.collectionDims),
	}
	return nil
}

func (s *Store) CommitTx(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return kgerr.New(kgerr.KindConflict, "memstore.CommitTx", "no open transaction")
	}
	s.snap = nil
	return nil
}

func (s *Store) RollbackTx(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return kgerr.New(kgerr.KindConflict, "memstore.RollbackTx", "no open transaction")
	}
	s.nodes = s.snap.nodes
	s.edges = s.snap.edges
	s.vectors = s.snap.vectors
	s.chunks = s.snap.chunks
	s.collectionDims = s.snap.collectionDims
	s.snap = nil
	return nil
}

func cloneNodeMap(in map[string]*domain.Node) map[string]*domain.Node {
	out := make(map[string]*domain.Node, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func cloneEdgeMap(in map[string]*domain.Edge) map[string]*domain.Edge {
	out := make(map[string]*domain.Edge, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func cloneVectorMap(in map[string]*domain.VectorPayload) map[string]*domain.VectorPayload {
	out := make(map[string]*domain.VectorPayload, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func cloneChunkMap(in map[string]*domain.DocumentChunk) map[string]*domain.DocumentChunk {
	out := make(map[string]*domain.DocumentChunk, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func cloneDims(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
