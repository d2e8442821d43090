package domain

import (
	"time"

	"github.com/google/uuid"
)

type EdgeWeight struct {
	Strength          float64 `json:"strength"`
	DecayRate         float64 `json:"decay_rate"`
	ReinforcementRate float64 `json:"reinforcement_rate"`
}

type EdgeDynamics struct {
	Inhibitory  bool `json:"inhibitory"`
	Directional bool `json:"directional"`
}

type EdgeTemporal struct {
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Edge connects two existing nodes. When Dynamics.Directional is true the
// edge is read FromNode → ToNode only.
type Edge struct {
	ID          string       `json:"id"`
	FromNode    string       `json:"from_node"`
	ToNode      string       `json:"to_node"`
	Relation    Relation     `json:"relation"`
	Weight      EdgeWeight   `json:"weight"`
	Dynamics    EdgeDynamics `json:"dynamics"`
	Temporal    EdgeTemporal `json:"temporal"`
	Confidence  float64      `json:"confidence"`
	Conflicting bool         `json:"conflicting,omitempty"`
}

func NewEdge(from, to string, relation Relation) *Edge {
	now := time.Now().UTC()
	return &Edge{
		ID:       uuid.NewString(),
		FromNode: from,
		ToNode:   to,
		Relation: relation,
		Weight: EdgeWeight{
			Strength:          0.5,
			ReinforcementRate: 0.1,
		},
		Dynamics: EdgeDynamics{Directional: true},
		Temporal: EdgeTemporal{
			CreatedAt:  now,
			LastUsedAt: now,
		},
		Confidence: 0.5,
	}
}

type EdgePatch struct {
	Relation    *Relation     `json:"relation,omitempty"`
	Weight      *EdgeWeight   `json:"weight,omitempty"`
	Dynamics    *EdgeDynamics `json:"dynamics,omitempty"`
	Confidence  *float64      `json:"confidence,omitempty"`
	Conflicting *bool         `json:"conflicting,omitempty"`
	LastUsedAt  *time.Time    `json:"last_used_at,omitempty"`
}

func (p EdgePatch) Apply(e *Edge) {
	if p.Relation != nil {
		e.Relation = *p.Relation
	}
	if p.Weight != nil {
		e.Weight = *p.Weight
	}
	if p.Dynamics != nil {
		e.Dynamics = *p.Dynamics
	}
	if p.Confidence != nil {
		e.Confidence = *p.Confidence
	}
	if p.Conflicting != nil {
		e.Conflicting = *p.Conflicting
	}
	if p.LastUsedAt != nil {
		e.Temporal.LastUsedAt = *p.LastUsedAt
	}
}

func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	out := *e
	return &out
}

// Touches reports whether the edge is incident on the given node id.
func (e *Edge) Touches(nodeID string) bool {
	return e.FromNode == nodeID || e.ToNode == nodeID
}
