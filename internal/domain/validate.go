package domain

import (
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
)

func unit(op, field string, v float64) error {
	if v < 0 || v > 1 {
		return kgerr.Newf(kgerr.KindValidation, op, "%s must be in [0,1], got %v", field, v)
	}
	return nil
}

// Validate enforces the node range and enum invariants. Called at every
// creation and update boundary before the node reaches storage.
func (n *Node) Validate() error {
	const op = "domain.Node.Validate"
	if n.ID == "" {
		return kgerr.New(kgerr.KindValidation, op, "id is required")
	}
	if n.Name == "" {
		return kgerr.New(kgerr.KindValidation, op, "name is required")
	}
	if !IsNodeKind(n.Kind) {
		return kgerr.Newf(kgerr.KindValidation, op, "unknown node type %q", n.Kind)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"level.abstraction", n.Level.Abstraction},
		{"level.difficulty", n.Level.Difficulty},
		{"level.volatility", n.Level.Volatility},
		{"cognitive_state.strength", n.CognitiveState.Strength},
		{"cognitive_state.activation", n.CognitiveState.Activation},
		{"cognitive_state.confidence", n.CognitiveState.Confidence},
		{"real_world.avg_salary_weight", n.RealWorld.AvgSalaryWeight},
		{"real_world.interview_frequency", n.RealWorld.InterviewFrequency},
	} {
		if err := unit(op, f.name, f.v); err != nil {
			return err
		}
	}
	if n.CognitiveState.DecayRate < 0 {
		return kgerr.Newf(kgerr.KindValidation, op, "cognitive_state.decay_rate must be >= 0, got %v", n.CognitiveState.DecayRate)
	}
	if n.RealWorld.CompaniesUsing < 0 {
		return kgerr.Newf(kgerr.KindValidation, op, "real_world.companies_using must be >= 0, got %d", n.RealWorld.CompaniesUsing)
	}
	if n.Temporal.IntroducedAt.After(n.Temporal.LastReinforcedAt) {
		return kgerr.New(kgerr.KindValidation, op, "temporal.introduced_at must not be after temporal.last_reinforced_at")
	}
	return nil
}

// Validate enforces the edge invariants. Node existence is checked by the
// storage backend, not here.
func (e *Edge) Validate() error {
	const op = "domain.Edge.Validate"
	if e.ID == "" {
		return kgerr.New(kgerr.KindValidation, op, "id is required")
	}
	if e.FromNode == "" || e.ToNode == "" {
		return kgerr.New(kgerr.KindValidation, op, "from_node and to_node are required")
	}
	if !IsRelation(e.Relation) {
		return kgerr.Newf(kgerr.KindValidation, op, "unknown relation %q", e.Relation)
	}
	if err := unit(op, "weight.strength", e.Weight.Strength); err != nil {
		return err
	}
	if e.Weight.DecayRate < 0 {
		return kgerr.Newf(kgerr.KindValidation, op, "weight.decay_rate must be >= 0, got %v", e.Weight.DecayRate)
	}
	if e.Weight.ReinforcementRate < 0 {
		return kgerr.Newf(kgerr.KindValidation, op, "weight.reinforcement_rate must be >= 0, got %v", e.Weight.ReinforcementRate)
	}
	return unit(op, "confidence", e.Confidence)
}

func (v *VectorPayload) Validate() error {
	const op = "domain.VectorPayload.Validate"
	if v.ID == "" {
		return kgerr.New(kgerr.KindValidation, op, "id is required")
	}
	if len(v.Embedding) == 0 {
		return kgerr.New(kgerr.KindValidation, op, "embedding is empty")
	}
	if v.Collection == "" {
		return kgerr.New(kgerr.KindValidation, op, "collection is required")
	}
	if !IsEmbeddingType(v.EmbeddingType) {
		return kgerr.Newf(kgerr.KindValidation, op, "unknown embedding type %q", v.EmbeddingType)
	}
	if !IsAbstractionLevel(v.AbstractionLevel) {
		return kgerr.Newf(kgerr.KindValidation, op, "unknown abstraction level %q", v.AbstractionLevel)
	}
	if !IsSourceTier(v.SourceTier) {
		return kgerr.Newf(kgerr.KindValidation, op, "unknown source tier %q", v.SourceTier)
	}
	return unit(op, "confidence", v.Confidence)
}

func (c *DocumentChunk) Validate() error {
	const op = "domain.DocumentChunk.Validate"
	if c.ID == "" {
		return kgerr.New(kgerr.KindValidation, op, "id is required")
	}
	if c.SourceID == "" {
		return kgerr.New(kgerr.KindValidation, op, "source_id is required")
	}
	if !IsClaimType(c.ClaimType) {
		return kgerr.Newf(kgerr.KindValidation, op, "unknown claim type %q", c.ClaimType)
	}
	return unit(op, "confidence", c.Confidence)
}

func (p *AgentProposal) Validate() error {
	const op = "domain.AgentProposal.Validate"
	if p.ID == "" {
		return kgerr.New(kgerr.KindValidation, op, "id is required")
	}
	if !IsAgentType(p.AgentType) {
		return kgerr.Newf(kgerr.KindValidation, op, "unknown agent type %q", p.AgentType)
	}
	if !IsProposalAction(p.Action) {
		return kgerr.Newf(kgerr.KindValidation, op, "unknown action %q", p.Action)
	}
	if p.Target == nil {
		return kgerr.New(kgerr.KindValidation, op, "target is required")
	}
	if !targetMatchesAction(p.Action, p.Target) {
		return kgerr.Newf(kgerr.KindValidation, op, "target shape does not match action %q", p.Action)
	}
	return unit(op, "confidence", p.Confidence)
}

func targetMatchesAction(action ProposalAction, target ProposalTarget) bool {
	switch target.(type) {
	case CreateNodeTarget:
		return action == ActionCreateNode
	case UpdateNodeTarget:
		return action == ActionUpdateNode
	case CreateEdgeTarget:
		return action == ActionCreateEdge
	case UpdateEdgeTarget:
		return action == ActionUpdateEdge
	case MergeNodesTarget:
		return action == ActionMergeNodes
	case FlagConflictTarget:
		return action == ActionFlagConflict
	default:
		return false
	}
}
