package decay

import (
	"testing"
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
)

func vec(id string, embedding []float64, confidence float64, level domain.AbstractionLevel, refs ...string) *domain.VectorPayload {
	v := domain.NewVectorPayload("concepts", embedding, domain.EmbConcept)
	v.ID = id
	v.Confidence = confidence
	v.AbstractionLevel = level
	v.EntityRefs = refs
	return v
}

func TestConsolidateMergesSimilarVectors(t *testing.T) {
	e := NewEngine(DefaultConfig())
	now := time.Now().UTC()

	a := vec("a", []float64{1, 0, 0}, 0.9, domain.LevelCode, "node-1")
	b := vec("b", []float64{0.99, 0.05, 0}, 0.8, domain.LevelCode, "node-2")
	far := vec("c", []float64{0, 0, 1}, 0.7, domain.LevelCode, "node-3")

	out := e.Consolidate([]*domain.VectorPayload{a, b, far}, now)
	if len(out) != 1 {
		t.Fatalf("clusters: want=1 got=%d", len(out))
	}
	c := out[0]
	if len(c.MemberIDs) != 2 {
		t.Fatalf("members: want=2 got=%v", c.MemberIDs)
	}
	// confidence = 0.95 * min(cluster confidences)
	want := 0.95 * 0.8
	if diff := c.Vector.Confidence - want; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("confidence: want=%v got=%v", want, c.Vector.Confidence)
	}
	if got := c.Vector.EntityRefs; len(got) != 2 || got[0] != "node-1" || got[1] != "node-2" {
		t.Fatalf("entity refs must union: got=%v", got)
	}
	// all-code cluster promotes one tier
	if c.Vector.AbstractionLevel != domain.LevelIntuition {
		t.Fatalf("abstraction level: want=intuition got=%s", c.Vector.AbstractionLevel)
	}
	// mean embedding
	if got := c.Vector.Embedding[0]; got <= 0.9 || got > 1 {
		t.Fatalf("mean embedding looks wrong: %v", c.Vector.Embedding)
	}
}

func TestConsolidateEmitsAbstractionConcept(t *testing.T) {
	e := NewEngine(DefaultConfig())
	now := time.Now().UTC()

	a := vec("a", []float64{1, 0}, 0.9, domain.LevelIntuition, "node-1")
	b := vec("b", []float64{1, 0.01}, 0.9, domain.LevelIntuition, "node-2")
	out := e.Consolidate([]*domain.VectorPayload{a, b}, now)
	if len(out) != 1 {
		t.Fatalf("clusters: want=1 got=%d", len(out))
	}
	concept := out[0].Concept
	if concept.Kind != domain.KindAbstraction {
		t.Fatalf("concept kind: want=abstraction got=%s", concept.Kind)
	}
	if len(concept.Grounding.SourceRefs) != 2 {
		t.Fatalf("concept grounding must union entity refs: %v", concept.Grounding.SourceRefs)
	}
	if err := concept.Validate(); err != nil {
		t.Fatalf("emitted concept must validate: %v", err)
	}
	// shared non-code tier promotes to math
	if out[0].Vector.AbstractionLevel != domain.LevelMath {
		t.Fatalf("abstraction level: want=math got=%s", out[0].Vector.AbstractionLevel)
	}
}

func TestConsolidateLeavesDissimilarAlone(t *testing.T) {
	e := NewEngine(DefaultConfig())
	out := e.Consolidate([]*domain.VectorPayload{
		vec("a", []float64{1, 0, 0}, 0.9, domain.LevelCode),
		vec("b", []float64{0, 1, 0}, 0.9, domain.LevelCode),
		vec("c", []float64{0, 0, 1}, 0.9, domain.LevelCode),
	}, time.Now().UTC())
	if len(out) != 0 {
		t.Fatalf("no cluster expected, got %d", len(out))
	}
	if out := e.Consolidate(nil, time.Now().UTC()); out != nil {
		t.Fatalf("empty input must yield nil")
	}
}
