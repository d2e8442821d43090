package qdrantstore

import (
	"context"
	"testing"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/platform/qdranthttp"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
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

func newTestStore(t *testing.T) *Store {
	t.Helper()
	client, err := qdranthttp.New(mustTestLogger(t), qdranthttp.Config{URL: "http://qdrant.local"})
	if err != nil {
		t.Fatalf("qdranthttp.New: %v", err)
	}
	s, err := New(client, Config{CollectionPrefix: "mnemograph"}, mustTestLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestVectorPayloadRoundTrip(t *testing.T) {
	v := domain.NewVectorPayload("chunks", []float64{0.1, 0.2, 0.3}, domain.EmbMethod)
	v.EntityRefs = []string{"chunk-1"}
	v.SourceTier = domain.TierT1
	v.AbstractionLevel = domain.LevelCode
	score := 0.75
	v.DecayScore = &score

	// Payloads come back from JSON decoding, so slices arrive as []any.
	props := vectorPayloadProps(v)
	refs := props["entity_refs"].([]string)
	anyRefs := make([]any, 0, len(refs))
	for _, r := range refs {
		anyRefs = append(anyRefs, r)
	}
	props["entity_refs"] = anyRefs

	got := vectorFromPoint(v.ID, v.Embedding, "chunks", props)
	if got.ID != v.ID || got.Collection != "chunks" {
		t.Fatalf("identity: %+v", got)
	}
	if got.EmbeddingType != domain.EmbMethod || got.SourceTier != domain.TierT1 || got.AbstractionLevel != domain.LevelCode {
		t.Fatalf("enums: %+v", got)
	}
	if len(got.EntityRefs) != 1 || got.EntityRefs[0] != "chunk-1" {
		t.Fatalf("entity refs: %+v", got.EntityRefs)
	}
	if got.DecayScore == nil || *got.DecayScore != 0.75 {
		t.Fatalf("decay score: %v", got.DecayScore)
	}
	if !got.CreatedAt.Equal(v.CreatedAt) {
		t.Fatalf("created_at: want=%v got=%v", v.CreatedAt, got.CreatedAt)
	}
}

func TestTargetCollections(t *testing.T) {
	s := newTestStore(t)
	s.rememberDim("chunks", 3)
	s.rememberDim("concepts", 3)

	if got := s.targetCollections(storage.VectorFilter{"collection": "chunks"}); len(got) != 1 || got[0] != "chunks" {
		t.Fatalf("scalar collection filter: %v", got)
	}
	if got := s.targetCollections(storage.VectorFilter{"collection": []string{"chunks", "concepts"}}); len(got) != 2 {
		t.Fatalf("membership collection filter: %v", got)
	}
	if got := s.targetCollections(nil); len(got) != 2 {
		t.Fatalf("no filter must search everything known: %v", got)
	}
}

func TestFilterWithoutCollection(t *testing.T) {
	in := storage.VectorFilter{"collection": "chunks", "source_tier": "T1"}
	out := filterWithoutCollection(in)
	if _, has := out["collection"]; has {
		t.Fatalf("collection key must be stripped: %v", out)
	}
	if out["source_tier"] != "T1" {
		t.Fatalf("other keys must survive: %v", out)
	}
}

func TestPhysicalNaming(t *testing.T) {
	s := newTestStore(t)
	if got := s.physical("chunks"); got != "mnemograph_chunks" {
		t.Fatalf("physical name: %s", got)
	}
}

func TestGraphOperationsNotSupported(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.GetNode(ctx, "x"); !kgerr.Is(err, kgerr.KindNotSupported) {
		t.Fatalf("GetNode: %v", err)
	}
	if _, err := s.FindPath(ctx, "a", "b", 3); !kgerr.Is(err, kgerr.KindNotSupported) {
		t.Fatalf("FindPath: %v", err)
	}
	if err := s.BeginTx(ctx); !kgerr.Is(err, kgerr.KindNotSupported) {
		t.Fatalf("BeginTx: %v", err)
	}
}
