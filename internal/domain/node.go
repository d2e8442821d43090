package domain

import (
	"time"

	"github.com/google/uuid"
)

// Level positions a node on three orthogonal axes, each in [0,1].
type Level struct {
	Abstraction float64 `json:"abstraction"`
	Difficulty  float64 `json:"difficulty"`
	Volatility  float64 `json:"volatility"`
}

// CognitiveState carries the decaying memory scalars of a node.
// Strength is retention, activation is short-term salience, confidence is
// epistemic reliability. DecayRate, when > 0, overrides the engine lambda.
type CognitiveState struct {
	Strength   float64 `json:"strength"`
	Activation float64 `json:"activation"`
	DecayRate  float64 `json:"decay_rate"`
	Confidence float64 `json:"confidence"`
}

type NodeTemporal struct {
	IntroducedAt     time.Time `json:"introduced_at"`
	LastReinforcedAt time.Time `json:"last_reinforced_at"`
	PeakRelevanceAt  time.Time `json:"peak_relevance_at"`
}

type RealWorld struct {
	UsedInProduction   bool    `json:"used_in_production"`
	CompaniesUsing     int     `json:"companies_using"`
	AvgSalaryWeight    float64 `json:"avg_salary_weight"`
	InterviewFrequency float64 `json:"interview_frequency"`
}

type Grounding struct {
	SourceRefs         []string `json:"source_refs"`
	ImplementationRefs []string `json:"implementation_refs"`
}

// FailureSurface lists node ids describing how this node goes wrong.
type FailureSurface struct {
	CommonBugs     []string `json:"common_bugs"`
	Misconceptions []string `json:"misconceptions"`
}

type Node struct {
	ID             string         `json:"id"`
	Kind           NodeKind       `json:"type"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Level          Level          `json:"level"`
	CognitiveState CognitiveState `json:"cognitive_state"`
	Temporal       NodeTemporal   `json:"temporal"`
	RealWorld      RealWorld      `json:"real_world"`
	Grounding      Grounding      `json:"grounding"`
	FailureSurface FailureSurface `json:"failure_surface"`

	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	CanonicalName       string    `json:"canonical_name,omitempty"`
	FirstAppearanceYear int       `json:"first_appearance_year,omitempty"`
	Domain              string    `json:"domain,omitempty"`
}

// NewNode builds a node with sane cognitive defaults and UTC timestamps.
func NewNode(kind NodeKind, name, description string) *Node {
	now := time.Now().UTC()
	return &Node{
		ID:          uuid.NewString(),
		Kind:        kind,
		Name:        name,
		Description: description,
		CognitiveState: CognitiveState{
			Strength:   1.0,
			Activation: 0.5,
			Confidence: 0.5,
		},
		Temporal: NodeTemporal{
			IntroducedAt:     now,
			LastReinforcedAt: now,
			PeakRelevanceAt:  now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NodePatch is a partial node update. Nil fields are left untouched.
// ID and CreatedAt are never patchable.
type NodePatch struct {
	Name                *string         `json:"name,omitempty"`
	Description         *string         `json:"description,omitempty"`
	Kind                *NodeKind       `json:"type,omitempty"`
	Level               *Level          `json:"level,omitempty"`
	CognitiveState      *CognitiveState `json:"cognitive_state,omitempty"`
	Temporal            *NodeTemporal   `json:"temporal,omitempty"`
	RealWorld           *RealWorld      `json:"real_world,omitempty"`
	Grounding           *Grounding      `json:"grounding,omitempty"`
	FailureSurface      *FailureSurface `json:"failure_surface,omitempty"`
	CanonicalName       *string         `json:"canonical_name,omitempty"`
	FirstAppearanceYear *int            `json:"first_appearance_year,omitempty"`
	Domain              *string         `json:"domain,omitempty"`
}

// Apply copies the patch onto n, preserving id and created_at and
// refreshing updated_at. The patched node is validated by the caller.
func (p NodePatch) Apply(n *Node) {
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Kind != nil {
		n.Kind = *p.Kind
	}
	if p.Level != nil {
		n.Level = *p.Level
	}
	if p.CognitiveState != nil {
		n.CognitiveState = *p.CognitiveState
	}
	if p.Temporal != nil {
		n.Temporal = *p.Temporal
	}
	if p.RealWorld != nil {
		n.RealWorld = *p.RealWorld
	}
	if p.Grounding != nil {
		n.Grounding = *p.Grounding
	}
	if p.FailureSurface != nil {
		n.FailureSurface = *p.FailureSurface
	}
	if p.CanonicalName != nil {
		n.CanonicalName = *p.CanonicalName
	}
	if p.FirstAppearanceYear != nil {
		n.FirstAppearanceYear = *p.FirstAppearanceYear
	}
	if p.Domain != nil {
		n.Domain = *p.Domain
	}
	n.UpdatedAt = time.Now().UTC()
}

// Clone deep-copies the node so storage backends never alias caller memory.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Grounding.SourceRefs = append([]string(nil), n.Grounding.SourceRefs...)
	out.Grounding.ImplementationRefs = append([]string(nil), n.Grounding.ImplementationRefs...)
	out.FailureSurface.CommonBugs = append([]string(nil), n.FailureSurface.CommonBugs...)
	out.FailureSurface.Misconceptions = append([]string(nil), n.FailureSurface.Misconceptions...)
	return &out
}
