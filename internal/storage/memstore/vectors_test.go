package memstore

import (
	"context"
	"testing"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

func storeVec(t *testing.T, s *Store, v *domain.VectorPayload) *domain.VectorPayload {
	t.Helper()
	created, err := s.StoreVector(context.Background(), v)
	if err != nil {
		t.Fatalf("StoreVector: %v", err)
	}
	return created
}

func TestVectorCollectionDimensionInvariant(t *testing.T) {
	s := New()
	ctx := context.Background()

	storeVec(t, s, domain.NewVectorPayload("concepts", []float64{1, 0, 0}, domain.EmbConcept))
	short := domain.NewVectorPayload("concepts", []float64{1, 0}, domain.EmbConcept)
	if _, err := s.StoreVector(ctx, short); !kgerr.Is(err, kgerr.KindValidation) {
		t.Fatalf("dimension mismatch: want=validation_error got=%v", err)
	}
	// A different collection fixes its own dimension independently.
	storeVec(t, s, domain.NewVectorPayload("chunks", []float64{1, 0}, domain.EmbMethod))
}

func TestSearchVectorsRankingAndFloor(t *testing.T) {
	s := New()
	ctx := context.Background()

	near := storeVec(t, s, domain.NewVectorPayload("concepts", []float64{1, 0, 0}, domain.EmbConcept))
	mid := storeVec(t, s, domain.NewVectorPayload("concepts", []float64{0.7, 0.7, 0}, domain.EmbConcept))
	storeVec(t, s, domain.NewVectorPayload("concepts", []float64{0, 0, 1}, domain.EmbConcept))

	got, err := s.SearchVectors(ctx, []float64{1, 0, 0}, 10, nil)
	if err != nil {
		t.Fatalf("SearchVectors: %v", err)
	}
	// The orthogonal vector sits below the 0.3 floor.
	if len(got) != 2 {
		t.Fatalf("results: want=2 got=%d", len(got))
	}
	if got[0].Vector.ID != near.ID || got[1].Vector.ID != mid.ID {
		t.Fatalf("results must rank by similarity descending")
	}
	if got[0].Similarity < got[1].Similarity {
		t.Fatalf("similarity ordering broken: %v then %v", got[0].Similarity, got[1].Similarity)
	}

	one, err := s.SearchVectors(ctx, []float64{1, 0, 0}, 1, nil)
	if err != nil || len(one) != 1 {
		t.Fatalf("k must cap results: got=%d err=%v", len(one), err)
	}
	if _, err := s.SearchVectors(ctx, nil, 5, nil); !kgerr.Is(err, kgerr.KindValidation) {
		t.Fatalf("empty query: want=validation_error got=%v", err)
	}
}

func TestSearchVectorsFilters(t *testing.T) {
	s := New()
	ctx := context.Background()

	t1 := domain.NewVectorPayload("concepts", []float64{1, 0}, domain.EmbConcept)
	t1.SourceTier = domain.TierT1
	t1.EntityRefs = []string{"node-1"}
	storeVec(t, s, t1)

	t3 := domain.NewVectorPayload("concepts", []float64{1, 0.01}, domain.EmbMethod)
	t3.SourceTier = domain.TierT3
	t3.EntityRefs = []string{"node-2"}
	storeVec(t, s, t3)

	got, err := s.SearchVectors(ctx, []float64{1, 0}, 10, storage.VectorFilter{"source_tier": "T1"})
	if err != nil || len(got) != 1 || got[0].Vector.ID != t1.ID {
		t.Fatalf("equality filter: got=%v err=%v", got, err)
	}

	got, err = s.SearchVectors(ctx, []float64{1, 0}, 10, storage.VectorFilter{
		"source_tier": []string{"T2", "T3"},
	})
	if err != nil || len(got) != 1 || got[0].Vector.ID != t3.ID {
		t.Fatalf("membership filter: got=%v err=%v", got, err)
	}

	got, err = s.SearchVectors(ctx, []float64{1, 0}, 10, storage.VectorFilter{"entity_refs": "node-1"})
	if err != nil || len(got) != 1 || got[0].Vector.ID != t1.ID {
		t.Fatalf("entity_refs filter: got=%v err=%v", got, err)
	}

	got, err = s.SearchVectors(ctx, []float64{1, 0}, 10, storage.VectorFilter{"unknown_key": "x"})
	if err != nil || len(got) != 0 {
		t.Fatalf("unknown filter key must match nothing: got=%v err=%v", got, err)
	}
}

func TestUpdateVectorDecay(t *testing.T) {
	s := New()
	ctx := context.Background()
	v := storeVec(t, s, domain.NewVectorPayload("concepts", []float64{1, 0}, domain.EmbConcept))

	if err := s.UpdateVectorDecay(ctx, v.ID, 0.42); err != nil {
		t.Fatalf("UpdateVectorDecay: %v", err)
	}
	got, err := s.GetVector(ctx, v.ID)
	if err != nil || got.DecayScore == nil || *got.DecayScore != 0.42 {
		t.Fatalf("decay score not persisted: %+v err=%v", got, err)
	}
	if err := s.UpdateVectorDecay(ctx, "missing", 0.1); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("missing vector: want=not_found got=%v", err)
	}
	if err := s.UpdateVectorDecay(ctx, v.ID, 1.5); !kgerr.Is(err, kgerr.KindValidation) {
		t.Fatalf("out-of-range score: want=validation_error got=%v", err)
	}
}

func TestChunkOperations(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := domain.NewDocumentChunk("doc-1", "gradient descent converges")
	first.Concepts = []string{"gradient descent"}
	if _, err := s.StoreChunk(ctx, first); err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}
	second := domain.NewDocumentChunk("doc-1", "attention is all you need")
	second.Concepts = []string{"attention"}
	if _, err := s.StoreChunk(ctx, second); err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}
	other := domain.NewDocumentChunk("doc-2", "unrelated content")
	if _, err := s.StoreChunk(ctx, other); err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}

	bySource, err := s.ChunksBySource(ctx, "doc-1")
	if err != nil || len(bySource) != 2 {
		t.Fatalf("ChunksBySource: got=%d err=%v", len(bySource), err)
	}
	byConcept, err := s.ChunksByConcept(ctx, "Attention")
	if err != nil || len(byConcept) != 1 || byConcept[0].ID != second.ID {
		t.Fatalf("ChunksByConcept must match case-insensitively: got=%v err=%v", byConcept, err)
	}

	count, err := s.DeleteChunksBySource(ctx, "doc-1")
	if err != nil || count != 2 {
		t.Fatalf("DeleteChunksBySource: count=%d err=%v", count, err)
	}
	left, _ := s.ChunksBySource(ctx, "doc-2")
	if len(left) != 1 {
		t.Fatalf("other sources must survive: %v", left)
	}
}

func TestTransactionSnapshotRollback(t *testing.T) {
	s := New()
	ctx := context.Background()
	kept := node(t, s, "kept")

	if err := s.BeginTx(ctx); err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if err := s.BeginTx(ctx); !kgerr.Is(err, kgerr.KindConflict) {
		t.Fatalf("nested BeginTx: want=conflict got=%v", err)
	}
	doomed := node(t, s, "doomed")
	if _, err := s.DeleteNode(ctx, kept.ID); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if err := s.RollbackTx(ctx); err != nil {
		t.Fatalf("RollbackTx: %v", err)
	}

	if _, err := s.GetNode(ctx, kept.ID); err != nil {
		t.Fatalf("rollback must restore deleted node: %v", err)
	}
	if _, err := s.GetNode(ctx, doomed.ID); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("rollback must drop in-transaction insert: %v", err)
	}

	if err := s.CommitTx(ctx); !kgerr.Is(err, kgerr.KindConflict) {
		t.Fatalf("commit without open tx: want=conflict got=%v", err)
	}
	if err := s.BeginTx(ctx); err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	node(t, s, "committed")
	if err := s.CommitTx(ctx); err != nil {
		t.Fatalf("CommitTx: %v", err)
	}
}
