package orchestrator

import (
	"context"
	"testing"

	"github.com/mnemograph/mnemograph-backend/internal/agents"
	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
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

func newOrchestrator(t *testing.T, store *memstore.Store) *Orchestrator {
	t.Helper()
	return New(DefaultConfig(), store, mustTestLogger(t))
}

func seed(t *testing.T, s *memstore.Store, name string, confidence float64) *domain.Node {
	t.Helper()
	n := domain.NewNode(domain.KindConcept, name, name+" description")
	n.CognitiveState.Confidence = confidence
	created, err := s.CreateNode(context.Background(), n)
	if err != nil {
		t.Fatalf("CreateNode(%s): %v", name, err)
	}
	return created
}

func createProposal(confidence float64) *domain.AgentProposal {
	node := domain.NewNode(domain.KindConcept, "proposed concept", "from agent")
	return domain.NewProposal(domain.AgentIngestion, domain.ActionCreateNode,
		domain.CreateNodeTarget{Node: node}, "new concept", confidence)
}

func TestAutoApprovalThreshold(t *testing.T) {
	store := memstore.New()
	o := newOrchestrator(t, store)
	ctx := context.Background()

	high := createProposal(0.97)
	low := createProposal(0.80)
	approved, err := o.Enqueue(ctx, []*domain.AgentProposal{high, low})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if approved != 1 {
		t.Fatalf("auto-approved: want=1 got=%d", approved)
	}
	if high.Status != domain.StatusApproved {
		t.Fatalf("high-confidence proposal: want=approved got=%s", high.Status)
	}
	if low.Status != domain.StatusProposed {
		t.Fatalf("low-confidence proposal: want=proposed got=%s", low.Status)
	}

	// Only the approved proposal was executed.
	nodeID := high.Target.(domain.CreateNodeTarget).Node.ID
	if _, err := store.GetNode(ctx, nodeID); err != nil {
		t.Fatalf("approved proposal must execute: %v", err)
	}
	lowID := low.Target.(domain.CreateNodeTarget).Node.ID
	if _, err := store.GetNode(ctx, lowID); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("pending proposal must not execute")
	}

	pending := o.Proposals(domain.StatusProposed)
	if len(pending) != 1 || pending[0].ID != low.ID {
		t.Fatalf("proposed listing: got=%v", pending)
	}
}

func TestProposalExecutesExactlyOnce(t *testing.T) {
	store := memstore.New()
	o := newOrchestrator(t, store)
	ctx := context.Background()

	p := createProposal(0.97)
	if _, err := o.Enqueue(ctx, []*domain.AgentProposal{p}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	// A second approval attempt must refuse rather than re-execute.
	if _, err := o.Approve(ctx, p.ID); !kgerr.Is(err, kgerr.KindConflict) {
		t.Fatalf("re-approve: want=conflict got=%v", err)
	}
	// Re-enqueueing the same proposal id is refused too.
	if _, err := o.Enqueue(ctx, []*domain.AgentProposal{p}); !kgerr.Is(err, kgerr.KindConflict) {
		t.Fatalf("duplicate enqueue: want=conflict got=%v", err)
	}
}

func TestExecutionFailureRejectsAndContinues(t *testing.T) {
	store := memstore.New()
	o := newOrchestrator(t, store)
	ctx := context.Background()

	// Updating a missing node fails at execution time.
	doomed := domain.NewProposal(domain.AgentResearch, domain.ActionUpdateNode,
		domain.UpdateNodeTarget{NodeID: "missing"}, "will fail", 0.99)
	ok := createProposal(0.99)

	approved, err := o.Enqueue(ctx, []*domain.AgentProposal{doomed, ok})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if approved != 1 {
		t.Fatalf("auto-approved: want=1 got=%d", approved)
	}
	if doomed.Status != domain.StatusRejected {
		t.Fatalf("failed execution must reject, got %s", doomed.Status)
	}
	if doomed.Reasoning == "will fail" {
		t.Fatalf("rejection must record the error in reasoning")
	}
	if ok.Status != domain.StatusApproved {
		t.Fatalf("later proposals must still run, got %s", ok.Status)
	}
}

func TestRejectIsFinal(t *testing.T) {
	store := memstore.New()
	o := newOrchestrator(t, store)
	ctx := context.Background()

	p := createProposal(0.5)
	if _, err := o.Enqueue(ctx, []*domain.AgentProposal{p}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := o.Reject(p.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := o.Approve(ctx, p.ID); !kgerr.Is(err, kgerr.KindConflict) {
		t.Fatalf("approve after reject: want=conflict got=%v", err)
	}
	nodeID := p.Target.(domain.CreateNodeTarget).Node.ID
	if _, err := store.GetNode(ctx, nodeID); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("rejected proposal must never execute")
	}
}

func TestMergeNodesExecution(t *testing.T) {
	store := memstore.New()
	o := newOrchestrator(t, store)
	ctx := context.Background()

	canonical := seed(t, store, "tokenization", 0.9)
	duplicate := seed(t, store, "tokenisation", 0.4)
	neighbor := seed(t, store, "byte pair encoding", 0.8)

	cu, err := store.UpdateNode(ctx, canonical.ID, domain.NodePatch{
		Grounding: &domain.Grounding{SourceRefs: []string{"paper-1"}},
	})
	if err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	canonical = cu
	if _, err := store.UpdateNode(ctx, duplicate.ID, domain.NodePatch{
		Grounding: &domain.Grounding{SourceRefs: []string{"paper-2"}},
	}); err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}

	// One edge that must be rewired, one that becomes a duplicate.
	if _, err := store.CreateEdge(ctx, domain.NewEdge(duplicate.ID, neighbor.ID, domain.RelUses)); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}
	if _, err := store.CreateEdge(ctx, domain.NewEdge(canonical.ID, neighbor.ID, domain.RelUses)); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}
	if _, err := store.CreateEdge(ctx, domain.NewEdge(neighbor.ID, duplicate.ID, domain.RelImproves)); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	merge := domain.NewProposal(domain.AgentAlignment, domain.ActionMergeNodes,
		domain.MergeNodesTarget{NodeA: canonical.ID, NodeB: duplicate.ID}, "same concept", 0.96)
	if _, err := o.Enqueue(ctx, []*domain.AgentProposal{merge}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if merge.Status != domain.StatusApproved {
		t.Fatalf("merge must auto-approve and execute: %s %s", merge.Status, merge.Reasoning)
	}

	if _, err := store.GetNode(ctx, duplicate.ID); !kgerr.Is(err, kgerr.KindNotFound) {
		t.Fatalf("duplicate must be deleted")
	}
	kept, err := store.GetNode(ctx, canonical.ID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if len(kept.Grounding.SourceRefs) != 2 {
		t.Fatalf("grounding must union: %v", kept.Grounding.SourceRefs)
	}

	out, _ := store.EdgesFrom(ctx, canonical.ID)
	if len(out) != 1 {
		t.Fatalf("duplicate edges must deduplicate by (from,to,relation): %d", len(out))
	}
	in, _ := store.EdgesTo(ctx, canonical.ID)
	if len(in) != 1 || in[0].Relation != domain.RelImproves {
		t.Fatalf("incoming edge must be rewired to canonical: %v", in)
	}
}

func TestFlagConflictExecution(t *testing.T) {
	store := memstore.New()
	o := newOrchestrator(t, store)
	ctx := context.Background()

	a := seed(t, store, "rnn", 0.9)
	b := seed(t, store, "transformer", 0.9)
	flag := domain.NewProposal(domain.AgentContradiction, domain.ActionFlagConflict,
		domain.FlagConflictTarget{NodeA: a.ID, NodeB: b.ID}, "competing approaches", 0.96)
	if _, err := o.Enqueue(ctx, []*domain.AgentProposal{flag}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	edges, err := store.EdgesBetween(ctx, a.ID, b.ID)
	if err != nil || len(edges) != 1 {
		t.Fatalf("conflict edge: got=%d err=%v", len(edges), err)
	}
	e := edges[0]
	if e.Relation != domain.RelCompetesWith || !e.Dynamics.Inhibitory || !e.Conflicting {
		t.Fatalf("conflict edge shape: %+v", e)
	}
	if e.Confidence != flag.Confidence {
		t.Fatalf("conflict edge must inherit proposal confidence")
	}
}

func TestFullWorkflow(t *testing.T) {
	store := memstore.New()
	log := mustTestLogger(t)
	o := newOrchestrator(t, store)
	ctx := context.Background()

	// Low-confidence isolated node: research gap. Adversarial edge pair:
	// contradiction. Near-identical names: alignment.
	seed(t, store, "tokenization", 0.5)
	seed(t, store, "tokenisation", 0.5)
	x := seed(t, store, "rnn", 0.9)
	y := seed(t, store, "transformer", 0.9)
	e := domain.NewEdge(x.ID, y.ID, domain.RelCompetesWith)
	e.Confidence = 1.0
	if _, err := store.CreateEdge(ctx, e); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	report, err := o.FullWorkflow(ctx,
		agents.NewAlignment(agents.DefaultAlignmentThreshold, log),
		agents.NewContradiction(log),
		agents.NewResearch(log),
	)
	if err != nil {
		t.Fatalf("FullWorkflow: %v", err)
	}
	if report.Generated == 0 {
		t.Fatalf("workflow must generate proposals")
	}
	if report.AutoApproved > report.Generated {
		t.Fatalf("auto-approved cannot exceed generated: %+v", report)
	}
	// The full-confidence contradiction edge maps to 0.90, below the 0.95
	// threshold, so everything stays queued.
	if report.AutoApproved != 0 {
		t.Fatalf("no proposal reaches the default threshold: %+v", report)
	}
	if got := len(o.Proposals(domain.StatusProposed)); got != report.Generated {
		t.Fatalf("queue retention: want=%d got=%d", report.Generated, got)
	}
}
