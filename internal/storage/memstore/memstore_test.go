package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
)

func node(t *testing.T, s *Store, name string) *domain.Node {
	t.Helper()
	n := domain.NewNode(domain.KindConcept, name, name+" description")
	created, err := s.CreateNode(context.Background(), n)
	if err != nil {
		t.Fatalf("CreateNode(%s): %v", name, err)
	}
	return created
}

func edge(t *testing.T, s *Store, from, to string, r domain.Relation) *domain.Edge {
	t.Helper()
	e := domain.NewEdge(from, to, r)
	created, err := s.CreateEdge(context.Background(), e)
	if err != nil {
		t.Fatalf("CreateEdge(%s->%s): %v", from, to, err)
	}
	return created
}

func TestNodeLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	n := node(t, s, "attention")
	if _, err := s.CreateNode(ctx, n); !kgerr.Is(err, kgerr.KindConflict) {
		t.Fatalf("duplicate create: want=conflict got=%v", err)
	}

	got, err := s.GetNode(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	// Returned entities must not alias internal state.
	got.Name = "mutated"
	again, _ := s.GetNode(ctx, n.ID)
	if again.Name != "attention" {
		t.Fatalf("store must not alias caller memory")
	}

	desc := "updated description"
	updated, err := s.UpdateNode(ctx, n.ID, domain.NodePatch{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	if updated.Description != desc || updated.ID != n.ID || !updated.CreatedAt.Equal(n.CreatedAt) {
		t.Fatalf("update must preserve identity: %+v", updated)
	}

	if _, err := s.UpdateNode(ctx, "missing", domain.NodePatch{Description: &desc}); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("update missing: want=not_found got=%v", err)
	}

	bad := 1.5
	if _, err := s.UpdateNode(ctx, n.ID, domain.NodePatch{CognitiveState: &domain.CognitiveState{Strength: bad}}); !kgerr.Is(err, kgerr.KindValidation) {
		t.Fatalf("invalid patch: want=validation_error got=%v", err)
	}

	ok, err := s.DeleteNode(ctx, n.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteNode: ok=%v err=%v", ok, err)
	}
	ok, err = s.DeleteNode(ctx, n.ID)
	if err != nil || ok {
		t.Fatalf("deleting twice must report false, got ok=%v err=%v", ok, err)
	}
}

func TestDeleteNodeCascadesEdges(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := node(t, s, "a")
	b := node(t, s, "b")
	c := node(t, s, "c")
	ab := edge(t, s, a.ID, b.ID, domain.RelDependsOn)
	bc := edge(t, s, b.ID, c.ID, domain.RelUses)

	if _, err := s.DeleteNode(ctx, b.ID); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if _, err := s.GetEdge(ctx, ab.ID); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("incident edge must cascade: %v", err)
	}
	if _, err := s.GetEdge(ctx, bc.ID); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("incident edge must cascade: %v", err)
	}
}

func TestListNodesOrderingAndPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		n := domain.NewNode(domain.KindConcept, string(rune('a'+i)), "d")
		n.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := s.CreateNode(ctx, n); err != nil {
			t.Fatalf("CreateNode: %v", err)
		}
	}

	page, err := s.ListNodes(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 2 || !page.HasMore {
		t.Fatalf("page 1: %+v", page)
	}
	if page.Items[0].Name != "e" || page.Items[1].Name != "d" {
		t.Fatalf("listing must order created_at descending: %s, %s",
			page.Items[0].Name, page.Items[1].Name)
	}

	last, err := s.ListNodes(ctx, 3, 2)
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(last.Items) != 1 || last.HasMore {
		t.Fatalf("final page: %+v", last)
	}

	empty, err := s.ListNodes(ctx, 9, 2)
	if err != nil || len(empty.Items) != 0 {
		t.Fatalf("out-of-range page must be empty: %+v err=%v", empty, err)
	}
}

func TestSearchNodesByTextRanking(t *testing.T) {
	s := New()
	ctx := context.Background()

	exact := domain.NewNode(domain.KindConcept, "cache", "fast lookup layer")
	partial := domain.NewNode(domain.KindConcept, "cache invalidation", "the hard problem")
	byDesc := domain.NewNode(domain.KindConcept, "memoization", "a cache of function results")
	other := domain.NewNode(domain.KindConcept, "consensus", "agreement protocol")
	for _, n := range []*domain.Node{byDesc, other, partial, exact} {
		if _, err := s.CreateNode(ctx, n); err != nil {
			t.Fatalf("CreateNode: %v", err)
		}
	}

	got, err := s.SearchNodesByText(ctx, "CACHE", 10)
	if err != nil {
		t.Fatalf("SearchNodesByText: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("hits: want=3 got=%d", len(got))
	}
	if got[0].ID != exact.ID {
		t.Fatalf("exact name match must sort first, got %s", got[0].Name)
	}
	if got[2].ID != byDesc.ID {
		t.Fatalf("description-only match must sort last, got %s", got[2].Name)
	}

	none, err := s.SearchNodesByText(ctx, "  ", 10)
	if err != nil || none != nil {
		t.Fatalf("blank query: want=nil got=%v err=%v", none, err)
	}
}

func TestNodesByType(t *testing.T) {
	s := New()
	ctx := context.Background()
	node(t, s, "concept-1")
	alg := domain.NewNode(domain.KindAlgorithm, "dijkstra", "paths")
	if _, err := s.CreateNode(ctx, alg); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	got, err := s.NodesByType(ctx, domain.KindAlgorithm, 10)
	if err != nil || len(got) != 1 || got[0].ID != alg.ID {
		t.Fatalf("NodesByType: got=%v err=%v", got, err)
	}
	if _, err := s.NodesByType(ctx, domain.NodeKind("thing"), 10); !kgerr.Is(err, kgerr.KindValidation) {
		t.Fatalf("unknown kind: want=validation_error got=%v", err)
	}
}

func TestBulkCreateNodesStopsAtFirstFailure(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := domain.NewNode(domain.KindConcept, "a", "d")
	bad := domain.NewNode(domain.KindConcept, "", "missing name")
	c := domain.NewNode(domain.KindConcept, "c", "d")

	res, err := s.BulkCreateNodes(ctx, []*domain.Node{a, bad, c})
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if len(res.CreatedIDs) != 1 || res.CreatedIDs[0] != a.ID {
		t.Fatalf("prefix of created ids: want=[%s] got=%v", a.ID, res.CreatedIDs)
	}
	// Earlier inserts stay without a transaction.
	if _, err := s.GetNode(ctx, a.ID); err != nil {
		t.Fatalf("prefix insert must persist: %v", err)
	}
	if _, err := s.GetNode(ctx, c.ID); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("post-failure items must not be attempted")
	}
}
