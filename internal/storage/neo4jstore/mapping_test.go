package neo4jstore

import (
	"strings"
	"testing"
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
)

func TestNodePropsRoundTrip(t *testing.T) {
	n := domain.NewNode(domain.KindAlgorithm, "quicksort", "divide and conquer sort")
	n.Level = domain.Level{Abstraction: 0.4, Difficulty: 0.6, Volatility: 0.1}
	n.RealWorld = domain.RealWorld{UsedInProduction: true, CompaniesUsing: 12, AvgSalaryWeight: 0.3, InterviewFrequency: 0.9}
	n.Grounding.SourceRefs = []string{"hoare-1961"}
	n.FailureSurface.CommonBugs = []string{"pivot-worst-case"}
	n.CanonicalName = "quick sort"
	n.FirstAppearanceYear = 1961
	n.Domain = "algorithms"

	// The driver hands property lists back as []any.
	props := nodeProps(n)
	for _, key := range []string{"source_refs", "implementation_refs", "common_bugs", "misconceptions"} {
		props[key] = props[key].([]any)
	}

	got := nodeFromProps(props)
	if got.ID != n.ID || got.Kind != n.Kind || got.Name != n.Name {
		t.Fatalf("identity fields: %+v", got)
	}
	if got.Level != n.Level || got.CognitiveState != n.CognitiveState {
		t.Fatalf("scalar blocks: %+v", got)
	}
	if !got.Temporal.IntroducedAt.Equal(n.Temporal.IntroducedAt) {
		t.Fatalf("introduced_at: want=%v got=%v", n.Temporal.IntroducedAt, got.Temporal.IntroducedAt)
	}
	if got.RealWorld != n.RealWorld {
		t.Fatalf("real world: %+v", got.RealWorld)
	}
	if len(got.Grounding.SourceRefs) != 1 || got.Grounding.SourceRefs[0] != "hoare-1961" {
		t.Fatalf("grounding: %+v", got.Grounding)
	}
	if got.FirstAppearanceYear != 1961 || got.CanonicalName != "quick sort" {
		t.Fatalf("optional fields: %+v", got)
	}
}

func TestEdgePropsRoundTrip(t *testing.T) {
	e := domain.NewEdge("a", "b", domain.RelCompetesWith)
	e.Dynamics.Inhibitory = true
	e.Conflicting = true
	e.Confidence = 0.9

	got := edgeFromProps(edgeProps(e), "a", "b")
	if got.ID != e.ID || got.Relation != e.Relation {
		t.Fatalf("identity: %+v", got)
	}
	if got.Weight != e.Weight || got.Dynamics != e.Dynamics {
		t.Fatalf("weight/dynamics: %+v", got)
	}
	if !got.Conflicting || got.Confidence != 0.9 {
		t.Fatalf("conflict fields: %+v", got)
	}
	if !got.Temporal.CreatedAt.Equal(e.Temporal.CreatedAt) {
		t.Fatalf("created_at mismatch")
	}
}

func TestChunkPropsRoundTrip(t *testing.T) {
	c := domain.NewDocumentChunk("src-1", "gradient descent minimizes loss")
	c.Section = "methods"
	c.ClaimType = domain.ClaimMethod
	c.Concepts = []string{"gradient descent"}
	c.EmbeddingID = "vec-1"

	props := chunkProps(c)
	props["concepts"] = props["concepts"].([]any)
	got := chunkFromProps(props)
	if got.ID != c.ID || got.Section != "methods" || got.ClaimType != domain.ClaimMethod {
		t.Fatalf("chunk fields: %+v", got)
	}
	if len(got.Concepts) != 1 || got.Concepts[0] != "gradient descent" {
		t.Fatalf("concepts: %+v", got.Concepts)
	}
}

func TestZeroTimesSurviveRoundTrip(t *testing.T) {
	var n domain.Node
	n.ID = "x"
	got := nodeFromProps(nodeProps(&n))
	if !got.Temporal.PeakRelevanceAt.IsZero() {
		t.Fatalf("zero time must stay zero, got %v", got.Temporal.PeakRelevanceAt)
	}
}

func TestRelationshipTypes(t *testing.T) {
	if relationshipType(domain.RelDependsOn) != "DEPENDS_ON" {
		t.Fatalf("type mapping: %s", relationshipType(domain.RelDependsOn))
	}
	union := relationshipUnion()
	if len(strings.Split(union, "|")) != len(domain.Relations()) {
		t.Fatalf("union must cover every relation: %s", union)
	}
	if !strings.Contains(union, "REQUIRES_FOR_DEBUGGING") {
		t.Fatalf("union missing relation: %s", union)
	}
}

func TestPathRespectsDirection(t *testing.T) {
	forward := domain.NewEdge("a", "b", domain.RelUses)
	backward := domain.NewEdge("c", "b", domain.RelUses)

	if !pathRespectsDirection([]*domain.Edge{forward}, "a") {
		t.Fatalf("forward traversal must pass")
	}
	if pathRespectsDirection([]*domain.Edge{forward, backward}, "a") {
		t.Fatalf("directional edge traversed backwards must fail")
	}
	backward.Dynamics.Directional = false
	if !pathRespectsDirection([]*domain.Edge{forward, backward}, "a") {
		t.Fatalf("non-directional edge may be traversed either way")
	}
}

func TestFormatTimeIsUTC(t *testing.T) {
	loc := time.FixedZone("plus2", 2*3600)
	stamped := time.Date(2025, 3, 1, 10, 0, 0, 0, loc)
	parsed := asTime(formatTime(stamped))
	if !parsed.Equal(stamped) {
		t.Fatalf("round trip: want=%v got=%v", stamped, parsed)
	}
	if parsed.Location() != time.UTC {
		t.Fatalf("stored times must be UTC")
	}
}
