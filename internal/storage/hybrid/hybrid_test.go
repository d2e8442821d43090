package hybrid

import (
	"context"
	"testing"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
	"github.com/mnemograph/mnemograph-backend/internal/storage/memstore"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func newHybrid(t *testing.T) (*Store, *memstore.Store, *memstore.Store) {
	t.Helper()
	graph := memstore.New()
	vector := memstore.New()
	s, err := New(graph, vector, mustTestLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, graph, vector
}

func TestRouting(t *testing.T) {
	s, graph, vector := newHybrid(t)
	ctx := context.Background()

	n := domain.NewNode(domain.KindConcept, "attention", "weighted context mixing")
	if _, err := s.CreateNode(ctx, n); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if _, err := graph.GetNode(ctx, n.ID); err != nil {
		t.Fatalf("node must land on the graph side: %v", err)
	}
	if _, err := vector.GetNode(ctx, n.ID); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("node must not land on the vector side")
	}

	v := domain.NewVectorPayload("chunks", []float64{1, 0, 0}, domain.EmbConcept)
	if _, err := s.StoreVector(ctx, v); err != nil {
		t.Fatalf("StoreVector: %v", err)
	}
	if _, err := vector.GetVector(ctx, v.ID); err != nil {
		t.Fatalf("vector must land on the vector side: %v", err)
	}

	c := domain.NewDocumentChunk("src-1", "attention is all you need")
	if _, err := s.StoreChunk(ctx, c); err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}
	chunks, err := graph.ChunksBySource(ctx, "src-1")
	if err != nil || len(chunks) != 1 {
		t.Fatalf("chunk must land on the graph side: %d %v", len(chunks), err)
	}
}

func TestCreateNodeWithEmbedding(t *testing.T) {
	s, graph, vector := newHybrid(t)
	ctx := context.Background()

	n := domain.NewNode(domain.KindConcept, "attention", "weighted context mixing")
	v := domain.NewVectorPayload("concepts", []float64{0.5, 0.5, 0}, domain.EmbConcept)

	created, err := s.CreateNodeWithEmbedding(ctx, n, v)
	if err != nil {
		t.Fatalf("CreateNodeWithEmbedding: %v", err)
	}
	if _, err := graph.GetNode(ctx, created.ID); err != nil {
		t.Fatalf("graph node: %v", err)
	}
	stored, err := vector.GetVector(ctx, v.ID)
	if err != nil {
		t.Fatalf("vector: %v", err)
	}
	found := false
	for _, ref := range stored.EntityRefs {
		if ref == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("embedding must reference its node: %v", stored.EntityRefs)
	}
}

func TestCreateNodeWithEmbeddingCleansUpOnVectorFailure(t *testing.T) {
	graph := memstore.New()
	s, err := New(graph, &failingVector{memstore.New()}, mustTestLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	n := domain.NewNode(domain.KindConcept, "attention", "weighted context mixing")
	v := domain.NewVectorPayload("concepts", []float64{1, 0, 0}, domain.EmbConcept)
	if _, err := s.CreateNodeWithEmbedding(ctx, n, v); err == nil {
		t.Fatalf("vector failure must abort the call")
	}
	if _, err := graph.GetNode(ctx, n.ID); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("failed embedding write must clean up the graph node")
	}
}

func TestDeleteNodeFansOutToEmbedding(t *testing.T) {
	s, _, vector := newHybrid(t)
	ctx := context.Background()

	n := domain.NewNode(domain.KindConcept, "attention", "weighted context mixing")
	v := domain.NewVectorPayload("concepts", []float64{1, 0, 0}, domain.EmbConcept)
	if _, err := s.CreateNodeWithEmbedding(ctx, n, v); err != nil {
		t.Fatalf("CreateNodeWithEmbedding: %v", err)
	}

	deleted, err := s.DeleteNode(ctx, n.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteNode: %v %v", deleted, err)
	}
	if _, err := vector.GetVector(ctx, v.ID); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("node delete must remove the node's embedding")
	}
}

func TestHealthCheckConjunction(t *testing.T) {
	s, _, _ := newHybrid(t)
	if !s.HealthCheck(context.Background()) {
		t.Fatalf("two healthy backends must report healthy")
	}

	down, err := New(memstore.New(), &unhealthyVector{memstore.New()}, mustTestLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if down.HealthCheck(context.Background()) {
		t.Fatalf("one unhealthy backend must fail the conjunction")
	}
}

type failingVector struct {
	storage.Adapter
}

func (f *failingVector) StoreVector(ctx context.Context, v *domain.VectorPayload) (*domain.VectorPayload, error) {
	return nil, kgerr.New(kgerr.KindUnavailable, "test.StoreVector", "vector backend down")
}

type unhealthyVector struct {
	storage.Adapter
}

func (u *unhealthyVector) HealthCheck(ctx context.Context) bool { return false }
