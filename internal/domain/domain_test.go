package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode(KindConcept, "attention", "weighted token mixing")
	if n.ID == "" {
		t.Fatalf("expected generated id")
	}
	if n.CognitiveState.Strength != 1.0 {
		t.Fatalf("strength: want=1.0 got=%v", n.CognitiveState.Strength)
	}
	if n.CognitiveState.Activation != 0.5 || n.CognitiveState.Confidence != 0.5 {
		t.Fatalf("activation/confidence defaults wrong: %+v", n.CognitiveState)
	}
	if n.Temporal.IntroducedAt.After(n.Temporal.LastReinforcedAt) {
		t.Fatalf("introduced_at must not trail last_reinforced_at")
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("fresh node should validate: %v", err)
	}
}

func TestNodeValidateRanges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Node)
	}{
		{"strength above one", func(n *Node) { n.CognitiveState.Strength = 1.2 }},
		{"negative activation", func(n *Node) { n.CognitiveState.Activation = -0.1 }},
		{"negative decay rate", func(n *Node) { n.CognitiveState.DecayRate = -1 }},
		{"abstraction above one", func(n *Node) { n.Level.Abstraction = 1.5 }},
		{"unknown kind", func(n *Node) { n.Kind = NodeKind("dream") }},
		{"missing name", func(n *Node) { n.Name = "" }},
		{"introduced after reinforced", func(n *Node) {
			n.Temporal.IntroducedAt = n.Temporal.LastReinforcedAt.Add(time.Hour)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := NewNode(KindAlgorithm, "dijkstra", "shortest paths")
			tc.mutate(n)
			if err := n.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestNodePatchApplyPreservesIdentity(t *testing.T) {
	n := NewNode(KindConcept, "backprop", "gradient flow")
	origID, origCreated := n.ID, n.CreatedAt

	name := "backpropagation"
	level := Level{Abstraction: 0.4, Difficulty: 0.6, Volatility: 0.1}
	patch := NodePatch{Name: &name, Level: &level}
	patch.Apply(n)

	if n.ID != origID || !n.CreatedAt.Equal(origCreated) {
		t.Fatalf("patch must not change id or created_at")
	}
	if n.Name != name || n.Level != level {
		t.Fatalf("patch fields not applied: %+v", n)
	}
	if n.Description != "gradient flow" {
		t.Fatalf("nil patch fields must be left untouched")
	}
	if !n.UpdatedAt.After(origCreated) && !n.UpdatedAt.Equal(origCreated) {
		t.Fatalf("updated_at should be refreshed")
	}
}

func TestNodeCloneIsDeep(t *testing.T) {
	n := NewNode(KindPaper, "adam", "adaptive moments")
	n.Grounding.SourceRefs = []string{"ref-1"}
	clone := n.Clone()
	clone.Grounding.SourceRefs[0] = "mutated"
	if n.Grounding.SourceRefs[0] != "ref-1" {
		t.Fatalf("clone shares grounding slice with original")
	}
}

func TestEdgeValidate(t *testing.T) {
	e := NewEdge("a", "b", RelDependsOn)
	if err := e.Validate(); err != nil {
		t.Fatalf("fresh edge should validate: %v", err)
	}
	e.Relation = Relation("likes")
	if err := e.Validate(); err == nil {
		t.Fatalf("expected error for unknown relation")
	}
	e = NewEdge("a", "", RelUses)
	if err := e.Validate(); err == nil {
		t.Fatalf("expected error for missing to_node")
	}
	e = NewEdge("a", "b", RelUses)
	e.Confidence = 1.7
	if err := e.Validate(); err == nil {
		t.Fatalf("expected error for out-of-range confidence")
	}
}

func TestVectorPayloadValidate(t *testing.T) {
	v := NewVectorPayload("concepts", []float64{0.1, 0.2}, EmbConcept)
	if err := v.Validate(); err != nil {
		t.Fatalf("fresh vector should validate: %v", err)
	}
	v.Embedding = nil
	if err := v.Validate(); err == nil {
		t.Fatalf("expected error for empty embedding")
	}
	v = NewVectorPayload("concepts", []float64{0.1}, EmbeddingType("vibes"))
	if err := v.Validate(); err == nil {
		t.Fatalf("expected error for unknown embedding type")
	}
}

func TestProposalJSONRoundTrip(t *testing.T) {
	node := NewNode(KindConcept, "dropout", "random unit masking")
	p := NewProposal(AgentIngestion, ActionCreateNode, CreateNodeTarget{Node: node}, "new concept from ingest", 0.8)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got AgentProposal
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	target, ok := got.Target.(CreateNodeTarget)
	if !ok {
		t.Fatalf("target type: want=CreateNodeTarget got=%T", got.Target)
	}
	if target.Node == nil || target.Node.Name != "dropout" {
		t.Fatalf("target node not preserved: %+v", target.Node)
	}
	if got.Status != StatusProposed || got.Confidence != 0.8 {
		t.Fatalf("proposal fields not preserved: %+v", got)
	}
}

func TestProposalTargetShapeByAction(t *testing.T) {
	merge := NewProposal(AgentAlignment, ActionMergeNodes, MergeNodesTarget{NodeA: "a", NodeB: "b"}, "near-identical names", 0.9)
	if err := merge.Validate(); err != nil {
		t.Fatalf("merge proposal should validate: %v", err)
	}
	mismatch := NewProposal(AgentAlignment, ActionCreateEdge, MergeNodesTarget{NodeA: "a", NodeB: "b"}, "wrong shape", 0.9)
	if err := mismatch.Validate(); err == nil {
		t.Fatalf("expected error for target shape mismatch")
	}

	data, err := json.Marshal(merge)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got AgentProposal
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := got.Target.(MergeNodesTarget); !ok {
		t.Fatalf("target type: want=MergeNodesTarget got=%T", got.Target)
	}
}

func TestEnumMembership(t *testing.T) {
	if len(NodeKinds()) != 9 {
		t.Fatalf("node kinds: want=9 got=%d", len(NodeKinds()))
	}
	if len(Relations()) != 19 {
		t.Fatalf("relations: want=19 got=%d", len(Relations()))
	}
	for _, k := range NodeKinds() {
		if !IsNodeKind(k) {
			t.Fatalf("kind %q should be recognized", k)
		}
	}
	for _, r := range Relations() {
		if !IsRelation(r) {
			t.Fatalf("relation %q should be recognized", r)
		}
	}
	if IsNodeKind("node") || IsRelation("related_to") {
		t.Fatalf("unknown members must be rejected")
	}
}
