package domain

// NodeKind classifies a knowledge node. Exactly nine kinds are recognized.
type NodeKind string

const (
	KindConcept      NodeKind = "concept"
	KindAlgorithm    NodeKind = "algorithm"
	KindSystem       NodeKind = "system"
	KindAPI          NodeKind = "api"
	KindPaper        NodeKind = "paper"
	KindTool         NodeKind = "tool"
	KindFailureMode  NodeKind = "failure_mode"
	KindOptimization NodeKind = "optimization"
	KindAbstraction  NodeKind = "abstraction"
)

var nodeKinds = map[NodeKind]bool{
	KindConcept:      true,
	KindAlgorithm:    true,
	KindSystem:       true,
	KindAPI:          true,
	KindPaper:        true,
	KindTool:         true,
	KindFailureMode:  true,
	KindOptimization: true,
	KindAbstraction:  true,
}

func IsNodeKind(k NodeKind) bool { return nodeKinds[k] }

func NodeKinds() []NodeKind {
	return []NodeKind{
		KindConcept, KindAlgorithm, KindSystem, KindAPI, KindPaper,
		KindTool, KindFailureMode, KindOptimization, KindAbstraction,
	}
}

// Relation labels an edge. Exactly nineteen relations are recognized.
type Relation string

const (
	RelDependsOn            Relation = "depends_on"
	RelAbstracts            Relation = "abstracts"
	RelImplements           Relation = "implements"
	RelReplaces             Relation = "replaces"
	RelSuppresses           Relation = "suppresses"
	RelInterferesWith       Relation = "interferes_with"
	RelRequiresForDebugging Relation = "requires_for_debugging"
	RelOptimizes            Relation = "optimizes"
	RelCausesFailureIn      Relation = "causes_failure_in"
	RelUses                 Relation = "uses"
	RelImproves             Relation = "improves"
	RelGeneralizes          Relation = "generalizes"
	RelSpecializes          Relation = "specializes"
	RelRequires             Relation = "requires"
	RelFailsOn              Relation = "fails_on"
	RelIntroducedIn         Relation = "introduced_in"
	RelEvaluatedOn          Relation = "evaluated_on"
	RelCompetesWith         Relation = "competes_with"
	RelDerivedFrom          Relation = "derived_from"
)

var relations = map[Relation]bool{
	RelDependsOn: true, RelAbstracts: true, RelImplements: true,
	RelReplaces: true, RelSuppresses: true, RelInterferesWith: true,
	RelRequiresForDebugging: true, RelOptimizes: true, RelCausesFailureIn: true,
	RelUses: true, RelImproves: true, RelGeneralizes: true,
	RelSpecializes: true, RelRequires: true, RelFailsOn: true,
	RelIntroducedIn: true, RelEvaluatedOn: true, RelCompetesWith: true,
	RelDerivedFrom: true,
}

func IsRelation(r Relation) bool { return relations[r] }

func Relations() []Relation {
	return []Relation{
		RelDependsOn, RelAbstracts, RelImplements, RelReplaces, RelSuppresses,
		RelInterferesWith, RelRequiresForDebugging, RelOptimizes,
		RelCausesFailureIn, RelUses, RelImproves, RelGeneralizes,
		RelSpecializes, RelRequires, RelFailsOn, RelIntroducedIn,
		RelEvaluatedOn, RelCompetesWith, RelDerivedFrom,
	}
}

// SourceTier ranks provenance; T1 is the most trusted.
type SourceTier string

const (
	TierT1 SourceTier = "T1"
	TierT2 SourceTier = "T2"
	TierT3 SourceTier = "T3"
	TierT4 SourceTier = "T4"
)

func IsSourceTier(t SourceTier) bool {
	switch t {
	case TierT1, TierT2, TierT3, TierT4:
		return true
	default:
		return false
	}
}

// AbstractionLevel marks where on the theory-to-code ladder a vector sits.
type AbstractionLevel string

const (
	LevelTheory    AbstractionLevel = "theory"
	LevelMath      AbstractionLevel = "math"
	LevelIntuition AbstractionLevel = "intuition"
	LevelCode      AbstractionLevel = "code"
)

func IsAbstractionLevel(l AbstractionLevel) bool {
	switch l {
	case LevelTheory, LevelMath, LevelIntuition, LevelCode:
		return true
	default:
		return false
	}
}

type EmbeddingType string

const (
	EmbConcept     EmbeddingType = "concept_embedding"
	EmbMethod      EmbeddingType = "method_explanation"
	EmbPaperClaim  EmbeddingType = "paper_claim"
	EmbFailureCase EmbeddingType = "failure_case"
	EmbCodePattern EmbeddingType = "code_pattern"
	EmbComparison  EmbeddingType = "comparison"
)

func IsEmbeddingType(t EmbeddingType) bool {
	switch t {
	case EmbConcept, EmbMethod, EmbPaperClaim, EmbFailureCase, EmbCodePattern, EmbComparison:
		return true
	default:
		return false
	}
}

type ClaimType string

const (
	ClaimDefinition ClaimType = "definition"
	ClaimMethod     ClaimType = "method"
	ClaimResult     ClaimType = "result"
	ClaimLimitation ClaimType = "limitation"
	ClaimAssumption ClaimType = "assumption"
	ClaimUnknown    ClaimType = "unknown"
)

func IsClaimType(t ClaimType) bool {
	switch t {
	case ClaimDefinition, ClaimMethod, ClaimResult, ClaimLimitation, ClaimAssumption, ClaimUnknown:
		return true
	default:
		return false
	}
}

type AgentType string

const (
	AgentIngestion     AgentType = "ingestion"
	AgentAlignment     AgentType = "alignment"
	AgentContradiction AgentType = "contradiction"
	AgentCurriculum    AgentType = "curriculum"
	AgentResearch      AgentType = "research"
)

func IsAgentType(t AgentType) bool {
	switch t {
	case AgentIngestion, AgentAlignment, AgentContradiction, AgentCurriculum, AgentResearch:
		return true
	default:
		return false
	}
}

type ProposalAction string

const (
	ActionCreateNode   ProposalAction = "create_node"
	ActionUpdateNode   ProposalAction = "update_node"
	ActionCreateEdge   ProposalAction = "create_edge"
	ActionUpdateEdge   ProposalAction = "update_edge"
	ActionMergeNodes   ProposalAction = "merge_nodes"
	ActionFlagConflict ProposalAction = "flag_conflict"
)

func IsProposalAction(a ProposalAction) bool {
	switch a {
	case ActionCreateNode, ActionUpdateNode, ActionCreateEdge, ActionUpdateEdge, ActionMergeNodes, ActionFlagConflict:
		return true
	default:
		return false
	}
}

type ProposalStatus string

const (
	StatusProposed ProposalStatus = "proposed"
	StatusApproved ProposalStatus = "approved"
	StatusRejected ProposalStatus = "rejected"
)
