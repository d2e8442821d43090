package agents

import (
	"context"
	"math"
	"testing"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/embedding"
	"github.com/mnemograph/mnemograph-backend/internal/ingestion"
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

func seed(t *testing.T, s *memstore.Store, name string, mutate func(*domain.Node)) *domain.Node {
	t.Helper()
	n := domain.NewNode(domain.KindConcept, name, name+" description")
	if mutate != nil {
		mutate(n)
	}
	created, err := s.CreateNode(context.Background(), n)
	if err != nil {
		t.Fatalf("CreateNode(%s): %v", name, err)
	}
	return created
}

func TestNameSimilarity(t *testing.T) {
	if sim := NameSimilarity("cache", "cache"); sim != 1 {
		t.Fatalf("identical names: want=1 got=%v", sim)
	}
	if sim := NameSimilarity("Cache", "cache "); sim != 1 {
		t.Fatalf("case and whitespace must not matter: got=%v", sim)
	}
	// one edit over ten runes
	if sim := NameSimilarity("tokenizers", "tokenizerz"); math.Abs(sim-0.9) > 1e-9 {
		t.Fatalf("single edit: want=0.9 got=%v", sim)
	}
	if sim := NameSimilarity("", ""); sim != 1 {
		t.Fatalf("empty names: want=1 got=%v", sim)
	}
}

func TestAlignmentProposesMerges(t *testing.T) {
	store := memstore.New()
	a := NewAlignment(0.85, mustTestLogger(t))
	ctx := context.Background()

	x := seed(t, store, "tokenization", nil)
	y := seed(t, store, "tokenisation", nil)
	seed(t, store, "gradient descent", nil)

	got, err := a.Propose(ctx, store)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("proposals: want=1 got=%d", len(got))
	}
	p := got[0]
	if p.Action != domain.ActionMergeNodes || p.AgentType != domain.AgentAlignment {
		t.Fatalf("proposal shape: %+v", p)
	}
	target := p.Target.(domain.MergeNodesTarget)
	if target.NodeA != x.ID && target.NodeA != y.ID {
		t.Fatalf("unexpected merge target: %+v", target)
	}
	wantSim := NameSimilarity("tokenization", "tokenisation")
	if p.Confidence != wantSim {
		t.Fatalf("confidence must equal similarity: want=%v got=%v", wantSim, p.Confidence)
	}
}

func TestContradictionFlagsAdversarialEdges(t *testing.T) {
	store := memstore.New()
	c := NewContradiction(mustTestLogger(t))
	ctx := context.Background()

	a := seed(t, store, "rnn", nil)
	b := seed(t, store, "transformer", nil)
	e := domain.NewEdge(a.ID, b.ID, domain.RelCompetesWith)
	e.Confidence = 0.5
	if _, err := store.CreateEdge(ctx, e); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}
	benign := domain.NewEdge(b.ID, a.ID, domain.RelImproves)
	if _, err := store.CreateEdge(ctx, benign); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	got, err := c.Propose(ctx, store)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("proposals: want=1 got=%d", len(got))
	}
	p := got[0]
	if p.Action != domain.ActionFlagConflict {
		t.Fatalf("action: want=flag_conflict got=%s", p.Action)
	}
	// 0.70 + 0.20*0.5
	if math.Abs(p.Confidence-0.80) > 1e-9 {
		t.Fatalf("confidence: want=0.80 got=%v", p.Confidence)
	}
	if p.Confidence < 0.70 || p.Confidence > 0.90 {
		t.Fatalf("confidence outside [0.70,0.90]: %v", p.Confidence)
	}
}

func TestResearchFindsGaps(t *testing.T) {
	store := memstore.New()
	r := NewResearch(mustTestLogger(t))
	ctx := context.Background()

	shaky := seed(t, store, "shaky", func(n *domain.Node) { n.CognitiveState.Confidence = 0.4 })
	isolated := seed(t, store, "isolated", func(n *domain.Node) { n.CognitiveState.Confidence = 0.9 })
	solid := seed(t, store, "solid", func(n *domain.Node) { n.CognitiveState.Confidence = 0.9 })
	if _, err := store.CreateEdge(ctx, domain.NewEdge(shaky.ID, solid.ID, domain.RelUses)); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}

	got, err := r.Propose(ctx, store)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("proposals: want=2 got=%d", len(got))
	}
	for _, p := range got {
		if p.Confidence < 0.60 || p.Confidence > 0.70 {
			t.Fatalf("gap confidence outside [0.60,0.70]: %v", p.Confidence)
		}
		target := p.Target.(domain.UpdateNodeTarget)
		if target.NodeID != shaky.ID && target.NodeID != isolated.ID {
			t.Fatalf("unexpected gap target %s", target.NodeID)
		}
	}
}

func TestIngestionProposesUnknownConcepts(t *testing.T) {
	store := memstore.New()
	log := mustTestLogger(t)
	pipeline := ingestion.NewPipeline(ingestion.DefaultConfig(), embedding.NewTFIDF(64, nil), nil, log)
	agent := NewIngestion(pipeline, log)
	ctx := context.Background()

	seed(t, store, "dropout", nil)

	proposals, res, err := agent.ProposeFromDocument(ctx, store,
		"notes", "We use dropout and gradient descent during training.")
	if err != nil {
		t.Fatalf("ProposeFromDocument: %v", err)
	}
	if res == nil || len(res.Chunks) == 0 {
		t.Fatalf("pipeline result missing")
	}
	if len(proposals) != 1 {
		t.Fatalf("proposals: want=1 got=%d", len(proposals))
	}
	p := proposals[0]
	if p.Action != domain.ActionCreateNode || p.Confidence != 0.8 {
		t.Fatalf("proposal shape: %+v", p)
	}
	node := p.Target.(domain.CreateNodeTarget).Node
	if node.Name != "gradient descent" {
		t.Fatalf("known concepts must be skipped, got %q", node.Name)
	}
}

func TestCurriculumPlan(t *testing.T) {
	store := memstore.New()
	c := NewCurriculum(5, mustTestLogger(t))
	ctx := context.Background()

	target := seed(t, store, "backpropagation", func(n *domain.Node) { n.Level.Difficulty = 0.8 })
	hard := seed(t, store, "chain rule", func(n *domain.Node) { n.Level.Difficulty = 0.6 })
	easy := seed(t, store, "derivatives", func(n *domain.Node) { n.Level.Difficulty = 0.3 })
	knownNode := seed(t, store, "functions", func(n *domain.Node) { n.Level.Difficulty = 0.1 })

	mustEdge := func(from, to string, r domain.Relation) {
		if _, err := store.CreateEdge(ctx, domain.NewEdge(from, to, r)); err != nil {
			t.Fatalf("CreateEdge: %v", err)
		}
	}
	mustEdge(hard.ID, target.ID, domain.RelRequires)
	mustEdge(easy.ID, hard.ID, domain.RelDependsOn)
	mustEdge(knownNode.ID, easy.ID, domain.RelRequires)

	plan, err := c.PlanFor(ctx, store, target.ID, map[string]bool{knownNode.ID: true})
	if err != nil {
		t.Fatalf("PlanFor: %v", err)
	}
	if len(plan.Prerequisites) != 2 {
		t.Fatalf("prerequisites: want=2 got=%d", len(plan.Prerequisites))
	}
	if plan.Prerequisites[0].ID != easy.ID || plan.Prerequisites[1].ID != hard.ID {
		t.Fatalf("prerequisites must sort by difficulty ascending: %s, %s",
			plan.Prerequisites[0].Name, plan.Prerequisites[1].Name)
	}
	if len(plan.Proposals) != 2 {
		t.Fatalf("informational proposals: want=2 got=%d", len(plan.Proposals))
	}
	for _, p := range plan.Proposals {
		if p.AgentType != domain.AgentCurriculum || p.Action != domain.ActionUpdateNode {
			t.Fatalf("proposal shape: %+v", p)
		}
	}
}
